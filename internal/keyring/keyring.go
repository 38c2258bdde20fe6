// Package keyring stores the vault passphrase in the OS keyring.
//
// Entries live under the service "fmp" and are keyed by the vault ID kept in
// the metadata database, so a vault that has never been encrypted has no
// entry to look up.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "fmp"

// ErrNoVaultID is returned when an operation is attempted without a vault ID
var ErrNoVaultID = errors.New("vault has no ID; encrypt it once first")

// ErrNotStored is returned when the keyring holds no entry for the vault
var ErrNotStored = errors.New("no password stored in keyring")

// SavePassword stores the passphrase for vaultID
func SavePassword(vaultID string, password string) error {
	if vaultID == "" {
		return ErrNoVaultID
	}
	return keyring.Set(serviceName, vaultID, password)
}

// GetPassword retrieves the passphrase for vaultID
func GetPassword(vaultID string) (string, error) {
	if vaultID == "" {
		return "", ErrNoVaultID
	}
	password, err := keyring.Get(serviceName, vaultID)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotStored
	}
	return password, err
}

// DeletePassword removes the passphrase for vaultID
func DeletePassword(vaultID string) error {
	if vaultID == "" {
		return ErrNoVaultID
	}
	err := keyring.Delete(serviceName, vaultID)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotStored
	}
	return err
}

// HasPassword reports whether a passphrase is stored for vaultID
func HasPassword(vaultID string) bool {
	_, err := GetPassword(vaultID)
	return err == nil
}
