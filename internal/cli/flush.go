// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import (
	"fmt"

	"github.com/hapara-fail/nx53/internal/firewall"
)

// Flush implements `nx53 flush all|banned`.
func Flush(args []string) error {
	if err := RequirePrivilege("flush"); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: nx53 flush all|banned")
	}

	var target firewall.FlushTarget
	switch args[0] {
	case "all":
		target = firewall.All
	case "banned":
		target = firewall.Banned
	default:
		return fmt.Errorf("unknown flush scope %q (want all or banned)", args[0])
	}

	fw, err := NewBackend()
	if err != nil {
		return err
	}
	if err := fw.Flush(target); err != nil {
		return err
	}
	fmt.Printf("flushed %s rules\n", args[0])
	return nil
}
