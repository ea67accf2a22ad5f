// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command nx53 is a DNS firewall and amplification-mitigation engine.
// Run with no arguments to start the daemon; see the subcommands below
// for one-shot control-plane operations.
package main

import (
	"fmt"
	"os"

	"github.com/hapara-fail/nx53/internal/cli"
	nxerrors "github.com/hapara-fail/nx53/internal/errors"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		if err := cli.Daemon(nil); err != nil {
			fail(err)
		}
		return
	}

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "block":
		err = cli.Block(rest)
	case "allow":
		err = cli.Allow(rest)
	case "flush":
		err = cli.Flush(rest)
	case "toggle":
		err = cli.Toggle(rest)
	case "stats":
		err = cli.Stats(rest)
	case "version":
		err = cli.Version(rest)
	case "update":
		err = cli.Update(rest)
	case "-h", "--help", "help":
		usage()
		return
	default:
		// Any other leading argument is treated as a daemon flag
		// (e.g. --mode, --interface), not a subcommand.
		err = cli.Daemon(args)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	if kind := nxerrors.GetKind(err); kind != nxerrors.KindUnknown {
		fmt.Fprintf(os.Stderr, "nx53: [%s] %v\n", kind, err)
	} else {
		fmt.Fprintln(os.Stderr, "nx53:", err)
	}
	os.Exit(1)
}

func usage() {
	fmt.Println(`nx53 - DNS firewall and amplification-mitigation engine

Usage:
  nx53                          run the daemon
  nx53 block <ip-or-domain>     block a source
  nx53 allow <ip-or-domain>     allow a source
  nx53 flush all|banned         flush firewall rules
  nx53 toggle intelligent|manual
  nx53 stats [--json]
  nx53 version
  nx53 update
  nx53 --mode intelligent|manual|hybrid [--interface eth0]`)
}
