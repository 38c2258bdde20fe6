package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/fmp/internal/core"
	"github.com/illarion/fmp/internal/crypto"
	"github.com/illarion/fmp/internal/keyring"
)

// Passwd changes the password of the encrypted vault
func Passwd(ctx context.Context) {
	v, _ := openVault()

	// Get vault ID for keyring lookup
	vaultID, _ := v.GetVaultID()

	// Get current password with retry on stale keyring
	currentPassword, _, err := GetPasswordWithRetry("Enter current password: ", vaultID, v.VerifyPassword)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(currentPassword)

	newPassword, err := core.ReadPasswordConfirm("Enter new password: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(newPassword)

	if err := v.ChangePassword(ctx, currentPassword, newPassword); err != nil {
		HandleError(err)
	}

	// Keep an existing keyring entry in sync
	if keyring.HasPassword(vaultID) {
		if err := keyring.SavePassword(vaultID, string(newPassword)); err == nil {
			fmt.Println("Keyring updated with new password")
		}
	}

	if v.State() == core.StateBoth {
		fmt.Println("note: the decrypted vault is still present; 'fmp encrypt' will seal it with the password you give")
	}

	fmt.Println("password changed successfully")
}
