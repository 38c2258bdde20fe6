package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/fmp/internal/core"
)

// deleteVault removes path, reporting failures as warnings
func deleteVault(path string) {
	if err := core.DeleteVault(path); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to remove %s: %s\n", path, err)
	}
}

// exitVault removes the plaintext vault at path and exits with status 1.
// It never returns.
func exitVault(path string) {
	deleteVault(path)
	os.Exit(1)
}

// encryptAndExit encrypts the vault with password and terminates the process.
// On success the process exits with code; if encryption fails the plaintext
// vault is kept and the process exits with status 1.
func encryptAndExit(ctx context.Context, v *core.Vault, password []byte, code int) {
	// Finish sealing even if the user interrupted the command
	ctx = context.WithoutCancel(ctx)

	fmt.Println("Encrypting fmp vault...")
	if err := v.Encrypt(ctx, password); err != nil {
		printError(err)
		fmt.Fprintf(os.Stderr, "Plaintext vault left at %s; run 'fmp encrypt' to retry\n", v.Locations().Vault)
		os.Exit(1)
	}
	fmt.Println("Encrypted!")

	if code != 0 {
		exitVault(v.Locations().Vault)
	}
	deleteVault(v.Locations().Vault)
	os.Exit(0)
}
