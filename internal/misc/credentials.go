// Package misc contains small helpers shared across commands.
package misc

import (
	"fmt"
	"path/filepath"
)

// LogSavingCredentials emits a consistent log message when persisting auth material.
func LogSavingCredentials(path string) {
	if path == "" {
		return
	}
	fmt.Printf("Saving credentials to %s\n", filepath.Clean(path))
}
