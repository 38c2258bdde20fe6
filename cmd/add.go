package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/fmp/internal/account"
	"github.com/illarion/fmp/internal/core"
	"github.com/illarion/fmp/internal/crypto"
)

// DefaultPasswordLength is the length of generated passwords
const DefaultPasswordLength = 24

// Add creates a new account record, creating the vault on first use
func Add(ctx context.Context, name, username string, generate bool, length int) {
	if name == "" {
		fmt.Fprintf(os.Stderr, "Error: add requires an account name\n")
		fmt.Fprintf(os.Stderr, "Usage: fmp add <account> [-u username] [-g] [-length n]\n")
		os.Exit(1)
	}
	if generate && length < 8 {
		fmt.Fprintf(os.Stderr, "Error: generated passwords must be at least 8 characters\n")
		os.Exit(1)
	}

	v, _ := openVault()

	withUnlockedVault(ctx, v, true, func(store *account.Store) error {
		if store.Exists(name) {
			return fmt.Errorf("%w: %s", account.ErrExists, name)
		}

		if username == "" {
			username = readLine("Username: ")
		}

		rec := account.Record{Name: name, Username: username}
		if generate {
			password, err := crypto.GeneratePassword(length)
			if err != nil {
				return err
			}
			rec.Password = password
			fmt.Printf("Generated password: %s\n", password)
		} else {
			password, err := core.ReadPasswordConfirm("Account password: ")
			if err != nil {
				return err
			}
			rec.Password = string(password)
			crypto.ClearBytes(password)
		}

		if err := store.Create(rec); err != nil {
			return err
		}
		fmt.Printf("added: %s\n", name)
		return nil
	})
}
