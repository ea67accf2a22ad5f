// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"fmt"
	"net"
	"time"
)

// SyslogConfig configures forwarding of log records to a remote
// syslog collector, disabled by default.
type SyslogConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Protocol string // "udp" or "tcp"
	Tag      string
	Facility int
}

// DefaultSyslogConfig returns syslog forwarding disabled, with the
// standard syslog port, UDP transport, and nx53's own tag.
func DefaultSyslogConfig() SyslogConfig {
	return SyslogConfig{
		Enabled:  false,
		Port:     514,
		Protocol: "udp",
		Tag:      "nx53",
		Facility: 1, // LOG_USER
	}
}

// SyslogWriter forwards formatted log lines to a remote syslog host.
type SyslogWriter struct {
	cfg  SyslogConfig
	conn net.Conn
}

// NewSyslogWriter dials cfg.Host:cfg.Port and returns a writer ready to
// forward records. Port, Protocol, and Tag are defaulted if zero.
func NewSyslogWriter(cfg SyslogConfig) (*SyslogWriter, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("logging: syslog host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 514
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "udp"
	}
	if cfg.Tag == "" {
		cfg.Tag = "nx53"
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := net.DialTimeout(cfg.Protocol, addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("logging: dial syslog %s: %w", addr, err)
	}

	return &SyslogWriter{cfg: cfg, conn: conn}, nil
}

// Write implements io.Writer, framing p as an RFC3164-ish syslog
// message with the configured facility and tag.
func (w *SyslogWriter) Write(p []byte) (int, error) {
	priority := w.cfg.Facility*8 + 6 // severity "info" by default
	msg := fmt.Sprintf("<%d>%s %s: %s", priority, time.Now().Format(time.Stamp), w.cfg.Tag, p)
	if _, err := w.conn.Write([]byte(msg)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the underlying connection.
func (w *SyslogWriter) Close() error {
	return w.conn.Close()
}
