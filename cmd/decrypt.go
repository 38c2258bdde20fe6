package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/fmp/internal/core"
	"github.com/illarion/fmp/internal/crypto"
)

// Decrypt restores the plaintext vault from the encrypted copy
func Decrypt(ctx context.Context, force bool) {
	v, cfg := openVault()

	switch v.State() {
	case core.StateEncrypted:
	case core.StateBoth:
		if !force {
			HandleError(core.ErrAlreadyDecrypted)
		}
	default:
		HandleError(core.ErrNotEncrypted)
	}

	vaultID, _ := v.GetVaultID()

	password, source, err := GetPasswordWithRetry("Enter password: ", vaultID, v.VerifyPassword)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	fmt.Println("Decrypting fmp vault...")
	if err := v.Decrypt(ctx, password, force); err != nil {
		HandleError(err)
	}
	fmt.Println("Decrypted")

	if source == SourcePrompt && cfg.OfferKeyring {
		vaultID, err := v.GetOrCreateVaultID()
		if err != nil {
			return
		}
		OfferToSavePassword(vaultID, password)
	}
}
