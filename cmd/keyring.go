package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/illarion/fmp/internal/core"
	"github.com/illarion/fmp/internal/crypto"
	"github.com/illarion/fmp/internal/keyring"
)

// noVaultIDHint explains why a vault that was never encrypted has no keyring entry
const noVaultIDHint = "No vault ID yet: keyring entries are keyed by the vault ID, which is created on first encrypt"

// KeyringSave verifies the passphrase against the encrypted archive and stores it
// under the vault ID, creating the ID if the metadata predates it.
func KeyringSave() {
	v, _ := openVault()

	password := GetPasswordOrExit("Enter password: ")
	defer crypto.ClearBytes(password)

	// Only a passphrase that opens the archive is worth remembering
	if err := v.VerifyPassword(password); err != nil {
		HandleError(err)
	}

	vaultID, err := v.GetOrCreateVaultID()
	if err != nil {
		HandleError(err)
	}

	if err := keyring.SavePassword(vaultID, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save to keyring: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("Password saved to keyring for vault %s\n", vaultID)
}

// KeyringDelete removes the stored passphrase for this vault
func KeyringDelete() {
	v, _ := openVault()
	fmt.Println(keyringDeleteMessage(v))
}

// KeyringStatus reports whether a passphrase is stored for this vault
func KeyringStatus() {
	v, _ := openVault()
	fmt.Println(keyringStatusMessage(v))
}

func keyringDeleteMessage(v *core.Vault) string {
	vaultID, err := v.GetVaultID()
	if errors.Is(err, core.ErrNoVaultID) {
		return noVaultIDHint
	}
	if err != nil {
		return fmt.Sprintf("Cannot read vault ID: %v", err)
	}

	switch err := keyring.DeletePassword(vaultID); {
	case errors.Is(err, keyring.ErrNotStored):
		return fmt.Sprintf("No password stored in keyring for vault %s", vaultID)
	case err != nil:
		return fmt.Sprintf("Cannot remove keyring entry for vault %s: %v", vaultID, err)
	}
	return fmt.Sprintf("Password removed from keyring for vault %s", vaultID)
}

func keyringStatusMessage(v *core.Vault) string {
	vaultID, err := v.GetVaultID()
	if errors.Is(err, core.ErrNoVaultID) {
		return "Password: not stored\n" + noVaultIDHint
	}
	if err != nil {
		return fmt.Sprintf("Password: unknown (cannot read vault ID: %v)", err)
	}

	if keyring.HasPassword(vaultID) {
		return fmt.Sprintf("Password: stored in keyring (vault %s)", vaultID)
	}
	return fmt.Sprintf("Password: not stored (vault %s)", vaultID)
}
