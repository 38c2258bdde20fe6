package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/illarion/fmp/internal/core"
	"github.com/illarion/fmp/internal/crypto"
)

// Diff compares the decrypted vault with the retained encrypted copy
func Diff(ctx context.Context, showPasswords bool) {
	v, _ := openVault()

	switch v.State() {
	case core.StateBoth:
	case core.StateEncrypted:
		fmt.Println("Vault is encrypted; nothing to compare")
		return
	case core.StatePlain:
		fmt.Println("No encrypted copy to compare against")
		return
	default:
		HandleError(core.ErrNotEncrypted)
	}

	vaultID, _ := v.GetVaultID()
	password, _, err := GetPasswordWithRetry("Enter password: ", vaultID, v.VerifyPassword)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	result, err := v.Diff(ctx, password, showPasswords)
	if err != nil {
		HandleError(err)
	}

	if !result.HasChanges() {
		fmt.Println("No changes since the last encrypt")
		return
	}

	for _, name := range result.Added {
		fmt.Printf("+ %s (added)\n", name)
	}
	for _, name := range result.Removed {
		fmt.Printf("- %s (removed)\n", name)
	}
	for _, change := range result.Changed {
		fmt.Printf("~ %s (modified)\n", change.Name)
		fmt.Print(indent(change.Patch, "    "))
	}
}

func indent(text, prefix string) string {
	var out strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if line != "" {
			out.WriteString(prefix)
			out.WriteString(line)
		}
	}
	return out.String()
}
