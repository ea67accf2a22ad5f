// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import "fmt"

// Toggle implements `nx53 toggle intelligent|manual`.
//
// There is no running-daemon control channel for a one-shot CLI
// process to reach, so this command has no mutating effect on a live
// daemon: it validates the argument and reports the request as
// reserved (see DESIGN.md Open Questions for the full contract).
func Toggle(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: nx53 toggle intelligent|manual")
	}
	switch args[0] {
	case "intelligent", "manual":
	default:
		return fmt.Errorf("unknown mode %q (want intelligent or manual)", args[0])
	}
	fmt.Printf("toggle %s: reserved, no running daemon to signal from this process\n", args[0])
	return nil
}
