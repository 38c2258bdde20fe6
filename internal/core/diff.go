package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/illarion/fmp/internal/account"
	"github.com/illarion/fmp/internal/archive"
	"github.com/illarion/fmp/internal/crypto"
)

// RecordDiff is a changed account with a line diff from encrypted copy to local
type RecordDiff struct {
	Name  string
	Patch string
}

// DiffResult compares the plaintext vault with the retained encrypted copy
type DiffResult struct {
	Added   []string // Only in the plaintext vault
	Removed []string // Only in the encrypted copy
	Changed []RecordDiff
}

// HasChanges reports whether the two copies differ
func (r *DiffResult) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Changed) > 0
}

// Diff compares the plaintext vault against the encrypted archive.
// Passwords are masked in patches unless showPasswords is set.
func (v *Vault) Diff(ctx context.Context, password []byte, showPasswords bool) (*DiffResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !isDir(v.loc.Vault) {
		return nil, ErrVaultNotFound
	}

	plaintext, err := v.openEncrypted(password)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(plaintext)

	archived, err := archivedRecords(plaintext, filepath.Base(v.loc.Vault))
	if err != nil {
		return nil, err
	}

	store, err := account.Open(v.loc.Vault)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	names, err := store.Names()
	if err != nil {
		return nil, err
	}

	result := &DiffResult{}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen[name] = true

		local, err := store.Read(name)
		if err != nil {
			return nil, err
		}

		old, ok := archived[name]
		if !ok {
			result.Added = append(result.Added, name)
			continue
		}

		oldText, newText := renderRecords(old, local, showPasswords)
		if oldText == newText {
			continue
		}
		result.Changed = append(result.Changed, RecordDiff{
			Name:  name,
			Patch: lineDiff(oldText, newText),
		})
	}

	for name := range archived {
		if !seen[name] {
			result.Removed = append(result.Removed, name)
		}
	}
	sort.Strings(result.Removed)

	return result, nil
}

// archivedRecords parses the account records held in an in-memory archive
func archivedRecords(data []byte, prefix string) (map[string]account.Record, error) {
	files, err := archive.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchiveFailed, err)
	}

	records := make(map[string]account.Record, len(files))
	for _, f := range files {
		dir, name := path.Split(f.Name)
		if strings.TrimSuffix(dir, "/") != prefix || name == "" || strings.HasPrefix(name, ".") {
			continue
		}

		var rec account.Record
		if err := json.Unmarshal(f.Data, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse archived %s: %w", name, err)
		}
		rec.Name = name
		records[name] = rec
	}
	return records, nil
}

// renderRecords formats two versions of a record for line diffing
func renderRecords(old, local account.Record, showPasswords bool) (string, string) {
	oldPassword, localPassword := old.Password, local.Password
	if !showPasswords {
		oldPassword, localPassword = maskedPassword, maskedPassword
		if old.Password != local.Password {
			oldPassword += " (encrypted copy)"
			localPassword += " (local)"
		}
	}

	format := "username: %s\npassword: %s\n"
	return fmt.Sprintf(format, old.Username, oldPassword), fmt.Sprintf(format, local.Username, localPassword)
}

// lineDiff produces a "-"/"+"/" " prefixed line diff
func lineDiff(oldText, newText string) string {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
		}
	}
	return out.String()
}
