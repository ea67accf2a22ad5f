// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux
// +build !linux

package firewall

import "github.com/hapara-fail/nx53/internal/logging"

// NFTablesBackend is a non-Linux stub: it logs the intended mutation
// without touching host state. It exists so the detection engine
// builds and can be exercised (tests, dry runs) on platforms without
// nftables.
type NFTablesBackend struct {
	logger *logging.Logger
}

// NewNFTablesBackend returns a logging-only stub backend.
func NewNFTablesBackend(logger *logging.Logger) (*NFTablesBackend, error) {
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	l := logger.WithComponent("firewall")
	l.Warn("nftables backend unavailable on this platform; running in stub mode")
	return &NFTablesBackend{logger: l}, nil
}

// BlockIP implements Backend by logging the intended drop rule.
func (b *NFTablesBackend) BlockIP(ip string) error {
	b.logger.Warn("stub: would block ip", "ip", ip)
	return nil
}

// AllowIP implements Backend by logging the intended allow rule.
func (b *NFTablesBackend) AllowIP(ip string) error {
	b.logger.Info("stub: would allow ip", "ip", ip)
	return nil
}

// Flush implements Backend by logging the intended flush.
func (b *NFTablesBackend) Flush(target FlushTarget) error {
	b.logger.Info("stub: would flush rules", "target", target)
	return nil
}
