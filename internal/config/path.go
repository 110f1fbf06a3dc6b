// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mekonnen-dev/bankpulse/internal/model"
)

// DefaultDBPath is where the review database lives unless configured
// otherwise.
const DefaultDBPath = "$HOME/.local/share/bankpulse/bankpulse.db"

// DefaultAppIDs maps each bank to its Google Play package name.
func DefaultAppIDs() map[model.Bank]string {
	return map[model.Bank]string{
		model.BankCBE:    "com.combanketh.mobilebanking",
		model.BankBOA:    "com.boa.boaMobileBanking",
		model.BankDashen: "com.dashen.dashensuperapp",
	}
}

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	// First expand tilde if present
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	// Then expand environment variables
	return os.ExpandEnv(path)
}
