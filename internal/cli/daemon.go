// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hapara-fail/nx53/internal/capture"
	nxconfig "github.com/hapara-fail/nx53/internal/config"
	"github.com/hapara-fail/nx53/internal/inspector"
	"github.com/hapara-fail/nx53/internal/logging"
	"github.com/hapara-fail/nx53/internal/metrics"
	"github.com/hapara-fail/nx53/internal/update"
)

// Daemon implements the no-subcommand path: run the detection engine
// against a live interface until an interrupt signal arrives.
func Daemon(args []string) error {
	if err := RequirePrivilege("daemon"); err != nil {
		return err
	}

	fs := flag.NewFlagSet("nx53", flag.ContinueOnError)
	iface := fs.String("interface", "eth0", "capture interface")
	mode := fs.String("mode", "", "override configured mode: intelligent|manual|hybrid")
	metricsAddr := fs.String("metrics-addr", ":9553", "address to serve /metrics and /healthz on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	instanceID := uuid.New().String()
	log := logging.New(logging.DefaultConfig()).With("instance", instanceID)

	cfg, path, found, err := nxconfig.Load()
	if err != nil {
		return err
	}
	if !found {
		log.Warn("no configuration file found, using defaults", "tried", path)
	} else {
		log.Info("loaded configuration", "path", path)
	}
	if *mode != "" {
		cfg.Mode = nxconfig.Mode(*mode)
	}

	insp := inspector.NewInspector(cfg, log)

	fw, err := NewBackend()
	if err != nil {
		return err
	}

	loop, err := capture.NewLoop(*iface, insp, fw, log)
	if err != nil {
		return err
	}
	defer loop.Close()

	reg := prometheus.NewRegistry()
	metricsReg := metrics.NewRegistry(reg, insp)
	loop.OnBlock(func(ip, reason string) {
		metricsReg.BlocksTotal.WithLabelValues(reason).Inc()
		if reason == inspector.ReasonRateLimit {
			metricsReg.BanEscalations.Inc()
		}
		if reason == inspector.ReasonRRL {
			metricsReg.RRLDropsTotal.Inc()
		}
	})
	loop.OnPass(func() { metricsReg.PassesTotal.Inc() })
	loop.OnParseError(func() { metricsReg.ParseFailures.Inc() })
	loop.OnFirewallError(func(op string) { metricsReg.FirewallErrors.WithLabelValues(op).Inc() })

	httpSrv := &http.Server{
		Addr:    *metricsAddr,
		Handler: metrics.NewHandler(reg, func() bool { return true }),
	}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go update.CheckForUpdates(ctx, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down on signal")
		cancel()
		loop.Close()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info("nx53 daemon started", "interface", *iface, "mode", cfg.Mode, "profile", cfg.Profile)
	if err := loop.Run(ctx); err != nil {
		return fmt.Errorf("capture loop exited: %w", err)
	}
	return nil
}
