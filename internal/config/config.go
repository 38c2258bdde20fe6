// Package config loads the optional fmp configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/illarion/fmp/internal/crypto"
)

// MinIterations is the lowest KDF iteration count accepted from the config file
const MinIterations = 100000

// Config holds user preferences
type Config struct {
	// KDFIterations is the PBKDF2 iteration count used when encrypting
	KDFIterations int `yaml:"kdf_iterations"`
	// OfferKeyring offers to save a typed passphrase in the OS keyring after decrypt
	OfferKeyring bool `yaml:"offer_keyring"`
	// MaskPasswords hides the password column in list output
	MaskPasswords bool `yaml:"mask_passwords"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		KDFIterations: crypto.DefaultIters,
		OfferKeyring:  true,
		MaskPasswords: false,
	}
}

// Load reads the config file at path. A missing file yields Default().
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c Config) Validate() error {
	if c.KDFIterations < MinIterations || c.KDFIterations > crypto.MaxIterations {
		return fmt.Errorf("kdf_iterations must be between %d and %d, got %d", MinIterations, crypto.MaxIterations, c.KDFIterations)
	}
	return nil
}
