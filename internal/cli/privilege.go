// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import "golang.org/x/sys/unix"

func geteuid() int {
	return unix.Geteuid()
}
