// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import (
	"fmt"

	"github.com/hapara-fail/nx53/internal/update"
)

// Version implements `nx53 version`.
func Version(args []string) error {
	fmt.Printf("nx53 v%s\n", update.Version)
	return nil
}
