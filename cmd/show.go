package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/fmp/internal/account"
	"github.com/illarion/fmp/internal/core"
	"github.com/illarion/fmp/internal/ui"
)

// Show prints a single account
func Show(ctx context.Context, name string) {
	if name == "" {
		fmt.Fprintf(os.Stderr, "Error: show requires an account name\n")
		fmt.Fprintf(os.Stderr, "Usage: fmp show <account>\n")
		os.Exit(1)
	}

	v, _ := openVault()

	withUnlockedVault(ctx, v, false, func(store *account.Store) error {
		rec, err := store.Read(name)
		if err != nil {
			return err
		}
		return ui.PrintTable(os.Stdout, core.EntryHeader, [][]string{{rec.Name, rec.Username, rec.Password}})
	})
}
