package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/fmp/internal/account"
	"github.com/illarion/fmp/internal/core"
	"github.com/illarion/fmp/internal/crypto"
)

// sessionFunc runs against an open account store
type sessionFunc func(store *account.Store) error

// withUnlockedVault runs fn against the plaintext vault.
//
// A vault that is already decrypted is used as is and left decrypted. An
// encrypted vault is decrypted, fn runs, and the vault is encrypted again with
// the same password before the process exits. With create set, a missing vault
// is created and encrypted under a new password afterwards.
func withUnlockedVault(ctx context.Context, v *core.Vault, create bool, fn sessionFunc) {
	loc := v.Locations()

	switch v.State() {
	case core.StatePlain, core.StateBoth:
		if err := runSession(loc.Vault, fn); err != nil {
			HandleError(err)
		}
		fmt.Println("Vault is decrypted; run 'fmp encrypt' when done")
		return

	case core.StateEncrypted:
		vaultID, _ := v.GetVaultID()
		password, _, err := GetPasswordWithRetry("Enter password: ", vaultID, v.VerifyPassword)
		if err != nil {
			HandleError(err)
		}
		defer crypto.ClearBytes(password)

		fmt.Println("Decrypting fmp vault...")
		if err := v.Decrypt(ctx, password, false); err != nil {
			HandleError(err)
		}
		fmt.Println("Decrypted")

		code := 0
		if err := runSession(loc.Vault, fn); err != nil {
			printError(err)
			code = 1
		}
		encryptAndExit(ctx, v, password, code)

	default:
		if !create {
			fmt.Println(core.NoAccountsHint)
			return
		}
		if err := account.EnsureVault(loc.Vault); err != nil {
			HandleError(err)
		}
		if err := runSession(loc.Vault, fn); err != nil {
			printError(err)
			exitVault(loc.Vault)
		}

		vaultID, err := v.GetOrCreateVaultID()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s\n", err)
		}
		fmt.Println("Choose a password for the new vault")
		password, err := GetNewPassword(vaultID)
		if err != nil {
			printError(err)
			fmt.Fprintf(os.Stderr, "Plaintext vault left at %s; run 'fmp encrypt' to secure it\n", loc.Vault)
			os.Exit(1)
		}
		defer crypto.ClearBytes(password)

		encryptAndExit(ctx, v, password, 0)
	}
}

func runSession(dir string, fn sessionFunc) error {
	store, err := account.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}
