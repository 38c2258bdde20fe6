package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/fmp/internal/core"
	"github.com/illarion/fmp/internal/git"
	"github.com/illarion/fmp/internal/keyring"
)

// Status shows the vault state (no password required)
func Status(ctx context.Context) {
	v, _ := openVault()

	status, err := v.Status(ctx)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Vault:     %s\n", status.State)
	fmt.Printf("Location:  %s\n", status.VaultPath)

	if status.State == core.StateEmpty {
		fmt.Println()
		fmt.Println(core.NoAccountsHint)
		return
	}

	if status.AccountsKnown {
		fmt.Printf("Accounts:  %d\n", status.Accounts)
	}

	if status.EncryptedSize > 0 {
		fmt.Printf("\nEncrypted: %s (%s)\n", status.EncryptedPath, formatSize(status.EncryptedSize))
		fmt.Printf("Algorithm: %s\n", status.Algorithm)
		if status.KDFIterations > 0 {
			fmt.Printf("KDF:       %d iterations\n", status.KDFIterations)
		}
	}

	if !status.Created.IsZero() {
		fmt.Printf("Created:        %s\n", status.Created.Format(time.RFC3339))
	}
	if !status.LastEncrypted.IsZero() {
		fmt.Printf("Last encrypted: %s\n", status.LastEncrypted.Format(time.RFC3339))
	}
	if !status.LastDecrypted.IsZero() {
		fmt.Printf("Last decrypted: %s\n", status.LastDecrypted.Format(time.RFC3339))
	}

	if keyring.HasPassword(status.VaultID) {
		fmt.Println("Keyring:   password stored")
	} else {
		fmt.Println("Keyring:   not stored")
	}

	if status.Interrupted {
		fmt.Println("\nwarning: transient archive present, a previous run was interrupted")
	}

	fmt.Print(git.FormatGitStatus(status.GitStatus))
}

func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
