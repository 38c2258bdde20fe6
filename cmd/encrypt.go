package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/fmp/internal/core"
	"github.com/illarion/fmp/internal/crypto"
)

// Encrypt seals the plaintext vault, replacing any existing encrypted copy
func Encrypt(ctx context.Context) {
	v, _ := openVault()

	if s := v.State(); s != core.StatePlain && s != core.StateBoth {
		HandleError(core.ErrVaultNotFound)
	}

	vaultID, err := v.GetOrCreateVaultID()
	if err != nil {
		HandleError(err)
	}

	password, err := GetNewPassword(vaultID)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	fmt.Println("Encrypting fmp vault...")
	if err := v.Encrypt(ctx, password); err != nil {
		HandleError(err)
	}
	fmt.Println("Encrypted!")
}
