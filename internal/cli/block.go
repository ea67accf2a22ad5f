// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import "fmt"

// Block implements `nx53 block <ip-or-domain>`.
func Block(args []string) error {
	if err := RequirePrivilege("block"); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: nx53 block <ip-or-domain>")
	}
	ip, err := ResolveTarget(args[0])
	if err != nil {
		return err
	}

	fw, err := NewBackend()
	if err != nil {
		return err
	}
	if err := fw.BlockIP(ip); err != nil {
		return err
	}
	fmt.Printf("blocked %s (%s)\n", args[0], ip)
	return nil
}
