// Package paths resolves the on-disk locations used by fmp.
//
// All locations are derived from the user's home directory:
//   - ~/.fmpVault              plaintext vault, one file per account
//   - ~/.fmpVault.tar.gz       transient archive, only exists mid-operation
//   - ~/.fmpVault.tar.gz.gpg   encrypted archive (at-rest form)
//   - ~/.fmpVault.db           vault metadata (no secrets)
//   - ~/.config/fmp/config.yaml
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	VaultDirName    = ".fmpVault"
	ArchiveSuffix   = ".tar.gz"
	EncryptedSuffix = ".tar.gz.gpg"
	MetaSuffix      = ".db"
	HomeEnv         = "FMP_HOME"
	configDirName   = "fmp"
	configFileName  = "config.yaml"
)

var ErrHomeDirectoryUnavailable = errors.New("could not find home directory")

// Locations holds every path fmp touches
type Locations struct {
	Home      string
	Vault     string
	Archive   string
	Encrypted string
	Meta      string
	Config    string
}

// Resolve computes locations from FMP_HOME or the current user's home directory
func Resolve() (Locations, error) {
	home := strings.TrimSpace(os.Getenv(HomeEnv))
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil || dir == "" {
			return Locations{}, fmt.Errorf("%w: %v", ErrHomeDirectoryUnavailable, err)
		}
		home = dir
	}

	abs, err := filepath.Abs(home)
	if err != nil {
		return Locations{}, fmt.Errorf("%w: %v", ErrHomeDirectoryUnavailable, err)
	}
	return ForHome(abs), nil
}

// ForHome builds locations rooted at the given home directory
func ForHome(home string) Locations {
	vault := filepath.Join(home, VaultDirName)
	return Locations{
		Home:      home,
		Vault:     vault,
		Archive:   vault + ArchiveSuffix,
		Encrypted: vault + EncryptedSuffix,
		Meta:      vault + MetaSuffix,
		Config:    filepath.Join(home, ".config", configDirName, configFileName),
	}
}
