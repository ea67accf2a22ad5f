// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package update implements the self-report/self-update surface: a
// background version check against the project's GitHub releases run
// once at daemon startup, and the same check run synchronously for
// the "update" command. Neither path is ever allowed to be fatal to
// the daemon.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hapara-fail/nx53/internal/logging"
)

// Version is the running build's version string, overridden at link
// time via -ldflags "-X .../internal/update.Version=...".
var Version = "dev"

const releaseAPI = "https://api.github.com/repos/hapara-fail/nx53/releases/latest"

type release struct {
	TagName string `json:"tag_name"`
}

// CheckForUpdates compares Version against the latest GitHub release
// tag and logs the outcome. It never returns an error to the caller;
// failures (network down, rate-limited, malformed response) are
// debug-logged and otherwise ignored, matching the "never fatal"
// policy for this component.
func CheckForUpdates(ctx context.Context, logger *logging.Logger) {
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	log := logger.WithComponent("update")

	latest, err := fetchLatestTag(ctx)
	if err != nil {
		log.Debug("update check failed", "error", err)
		return
	}
	if latest == "" || latest == Version {
		log.Info("nx53 is up to date", "version", Version)
		return
	}
	log.Warn("update available", "current", Version, "latest", latest)
}

func fetchLatestTag(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseAPI, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from release API", resp.StatusCode)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return "", err
	}
	return rel.TagName, nil
}
