package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/fmp/internal/account"
)

// Remove deletes accounts from the vault
func Remove(ctx context.Context, names []string) {
	if len(names) == 0 {
		fmt.Fprintf(os.Stderr, "Error: rm requires at least one account name\n")
		fmt.Fprintf(os.Stderr, "Usage: fmp rm <account> [account...]\n")
		os.Exit(1)
	}

	v, _ := openVault()

	withUnlockedVault(ctx, v, false, func(store *account.Store) error {
		// Check all names first so a typo removes nothing
		for _, name := range names {
			if !store.Exists(name) {
				return fmt.Errorf("%w: %s", account.ErrNotFound, name)
			}
		}
		for _, name := range names {
			if err := store.Remove(name); err != nil {
				return err
			}
			fmt.Printf("removed: %s\n", name)
		}
		return nil
	})
}
