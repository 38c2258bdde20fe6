package cmd

import (
	"context"
	"os"

	"github.com/illarion/fmp/internal/account"
	"github.com/illarion/fmp/internal/core"
)

// List prints every account in a table
func List(ctx context.Context) {
	v, cfg := openVault()

	withUnlockedVault(ctx, v, false, func(store *account.Store) error {
		return core.PrintAllEntries(ctx, os.Stdout, store, cfg.MaskPasswords)
	})
}
