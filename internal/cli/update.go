// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import (
	"context"
	"time"

	"github.com/hapara-fail/nx53/internal/logging"
	"github.com/hapara-fail/nx53/internal/update"
)

// Update implements `nx53 update`: the same check the daemon runs in
// the background at startup, run synchronously with a 10-second
// deadline. A failed check is logged only at debug level, so at the
// default level it prints nothing.
func Update(args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	update.CheckForUpdates(ctx, logging.New(logging.DefaultConfig()))
	return nil
}
