// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

// Stats implements `nx53 stats [--json]`.
//
// Like toggle, this command has no daemon telemetry to report: there
// is no persisted state and no IPC to a running daemon for a one-shot
// process to query. This reports that plainly instead of inventing
// counters it cannot actually observe.
func Stats(args []string) error {
	jsonOut := false
	for _, a := range args {
		if a == "--json" {
			jsonOut = true
		}
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(map[string]string{
			"status": "reserved",
			"detail": "stats requires an IPC channel to a running daemon, which this build does not implement",
		})
	}
	fmt.Println("stats: reserved; no IPC channel to a running daemon in this build")
	return nil
}
