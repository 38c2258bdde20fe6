package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/illarion/fmp/internal/account"
	"github.com/illarion/fmp/internal/crypto"
	"github.com/illarion/fmp/internal/paths"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	loc := paths.ForHome(t.TempDir())
	return New(loc, Options{Iterations: crypto.MinIterations})
}

func addAccounts(t *testing.T, v *Vault, recs ...account.Record) {
	t.Helper()
	if err := account.EnsureVault(v.Locations().Vault); err != nil {
		t.Fatalf("EnsureVault failed: %v", err)
	}
	store, err := account.Open(v.Locations().Vault)
	if err != nil {
		t.Fatalf("Open store failed: %v", err)
	}
	defer store.Close()
	for _, rec := range recs {
		if err := store.Write(rec); err != nil {
			t.Fatalf("Write %s failed: %v", rec.Name, err)
		}
	}
}

func snapshot(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	files := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		files[rel] = data
		return nil
	})
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	return files
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	loc := v.Locations()
	password := []byte("correct horse")

	addAccounts(t, v,
		account.Record{Name: "github", Username: "octo", Password: "hunter2"},
		account.Record{Name: "mail", Username: "me@example.com", Password: "s3cret"},
	)
	before := snapshot(t, loc.Vault)

	if err := v.Encrypt(ctx, password); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if exists(loc.Vault) {
		t.Error("plaintext vault should be removed after encrypt")
	}
	if exists(loc.Archive) {
		t.Error("transient archive should be removed after encrypt")
	}
	if !exists(loc.Encrypted) {
		t.Fatal("encrypted archive should exist after encrypt")
	}
	if v.State() != StateEncrypted {
		t.Errorf("expected state %v, got %v", StateEncrypted, v.State())
	}

	if err := v.Decrypt(ctx, password, false); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}

	if exists(loc.Archive) {
		t.Error("transient archive should be removed after decrypt")
	}
	if !exists(loc.Encrypted) {
		t.Error("encrypted archive should be retained after decrypt")
	}
	if v.State() != StateBoth {
		t.Errorf("expected state %v, got %v", StateBoth, v.State())
	}

	after := snapshot(t, loc.Vault)
	if len(after) != len(before) {
		t.Fatalf("expected %d files, got %d", len(before), len(after))
	}
	for name, data := range before {
		if !bytes.Equal(after[name], data) {
			t.Errorf("file %s differs after roundtrip", name)
		}
	}
}

func TestEncryptEmptyVault(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	password := []byte("pw")

	addAccounts(t, v)

	if err := v.Encrypt(ctx, password); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if err := v.Decrypt(ctx, password, false); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}

	entries, err := os.ReadDir(v.Locations().Vault)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty vault, got %d entries", len(entries))
	}
}

func TestEncryptWithoutVault(t *testing.T) {
	v := newTestVault(t)

	err := v.Encrypt(context.Background(), []byte("pw"))
	if !errors.Is(err, ErrVaultNotFound) {
		t.Fatalf("expected ErrVaultNotFound, got %v", err)
	}
	if exists(v.Locations().Encrypted) {
		t.Error("no encrypted archive should be created")
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	loc := v.Locations()

	addAccounts(t, v, account.Record{Name: "bank", Username: "u", Password: "p"})
	if err := v.Encrypt(ctx, []byte("right")); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	sealed, _ := os.ReadFile(loc.Encrypted)

	err := v.Decrypt(ctx, []byte("wrong"), false)
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if OutcomeOf(err) != OutcomeBadPassphrase {
		t.Errorf("expected %v, got %v", OutcomeBadPassphrase, OutcomeOf(err))
	}
	if exists(loc.Archive) {
		t.Error("archive must not exist after a failed decrypt")
	}
	if exists(loc.Vault) {
		t.Error("plaintext vault must not be created after a failed decrypt")
	}

	current, _ := os.ReadFile(loc.Encrypted)
	if !bytes.Equal(sealed, current) {
		t.Error("encrypted archive must not change after a failed decrypt")
	}
}

func TestDecryptWrongPasswordKeepsPlaintext(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	loc := v.Locations()
	password := []byte("right")

	addAccounts(t, v, account.Record{Name: "bank", Username: "u", Password: "p"})
	if err := v.Encrypt(ctx, password); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if err := v.Decrypt(ctx, password, false); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}

	err := v.Decrypt(ctx, []byte("wrong"), true)
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if !exists(filepath.Join(loc.Vault, "bank")) {
		t.Error("plaintext vault must survive a failed forced decrypt")
	}
}

func TestDecryptWithoutArchive(t *testing.T) {
	v := newTestVault(t)

	err := v.Decrypt(context.Background(), []byte("pw"), false)
	if !errors.Is(err, ErrNotEncrypted) {
		t.Fatalf("expected ErrNotEncrypted, got %v", err)
	}
}

func TestDecryptAlreadyDecrypted(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	loc := v.Locations()
	password := []byte("pw")

	addAccounts(t, v, account.Record{Name: "site", Username: "old", Password: "old"})
	if err := v.Encrypt(ctx, password); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if err := v.Decrypt(ctx, password, false); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}

	addAccounts(t, v, account.Record{Name: "site", Username: "new", Password: "new"})

	err := v.Decrypt(ctx, password, false)
	if !errors.Is(err, ErrAlreadyDecrypted) {
		t.Fatalf("expected ErrAlreadyDecrypted, got %v", err)
	}

	if err := v.Decrypt(ctx, password, true); err != nil {
		t.Fatalf("forced Decrypt failed: %v", err)
	}

	store, err := account.Open(loc.Vault)
	if err != nil {
		t.Fatalf("Open store failed: %v", err)
	}
	defer store.Close()
	rec, err := store.Read("site")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if rec.Username != "old" {
		t.Errorf("forced decrypt should restore encrypted record, got username %q", rec.Username)
	}
}

func TestForcedDecryptReplacesLocalVault(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	loc := v.Locations()
	password := []byte("pw")

	addAccounts(t, v, account.Record{Name: "a", Username: "u", Password: "p"})
	if err := v.Encrypt(ctx, password); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if err := v.Decrypt(ctx, password, false); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	addAccounts(t, v, account.Record{Name: "local", Username: "u2", Password: "p2"})

	if err := v.Decrypt(ctx, password, true); err != nil {
		t.Fatalf("forced Decrypt failed: %v", err)
	}

	store, err := account.Open(loc.Vault)
	if err != nil {
		t.Fatalf("Open store failed: %v", err)
	}
	defer store.Close()
	names, err := store.Names()
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	if len(names) != 1 || names[0] != "a" {
		t.Errorf("expected only the encrypted accounts [a], got %v", names)
	}

	result, err := v.Diff(ctx, password, false)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if result.HasChanges() {
		t.Errorf("restored vault should match the encrypted copy, got %+v", result)
	}

	entries, err := os.ReadDir(loc.Home)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".restore-") {
			t.Errorf("staging directory %s left behind", e.Name())
		}
	}
}

func TestEncryptRejectsIterationsOutOfRange(t *testing.T) {
	loc := paths.ForHome(t.TempDir())
	v := New(loc, Options{Iterations: crypto.MaxIterations + 1})
	addAccounts(t, v, account.Record{Name: "a", Username: "u", Password: "p"})

	err := v.Encrypt(context.Background(), []byte("pw"))
	if !errors.Is(err, crypto.ErrIterations) {
		t.Fatalf("expected ErrIterations, got %v", err)
	}
	if !exists(filepath.Join(loc.Vault, "a")) {
		t.Error("plaintext vault must survive a rejected encrypt")
	}
	if exists(loc.Encrypted) || exists(loc.Archive) {
		t.Error("no encrypted or transient archive should remain")
	}
}

func TestEncryptOverwritesExisting(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	addAccounts(t, v, account.Record{Name: "a", Username: "u", Password: "p"})
	if err := v.Encrypt(ctx, []byte("first")); err != nil {
		t.Fatalf("first Encrypt failed: %v", err)
	}
	if err := v.Decrypt(ctx, []byte("first"), false); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}

	addAccounts(t, v, account.Record{Name: "b", Username: "u2", Password: "p2"})
	if err := v.Encrypt(ctx, []byte("second")); err != nil {
		t.Fatalf("second Encrypt failed: %v", err)
	}

	if err := v.VerifyPassword([]byte("first")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("old password should no longer open the archive, got %v", err)
	}
	if err := v.Decrypt(ctx, []byte("second"), false); err != nil {
		t.Fatalf("Decrypt with new password failed: %v", err)
	}
	if got := countAccounts(v.Locations().Vault); got != 2 {
		t.Errorf("expected 2 accounts, got %d", got)
	}
	if exists(v.Locations().Encrypted + ".tmp") {
		t.Error("temporary file should not remain after encrypt")
	}
}

func TestEncryptCancelled(t *testing.T) {
	v := newTestVault(t)
	addAccounts(t, v, account.Record{Name: "a", Username: "u", Password: "p"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := v.Encrypt(ctx, []byte("pw")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !exists(v.Locations().Vault) {
		t.Error("plaintext vault must survive a cancelled encrypt")
	}
	if exists(v.Locations().Archive) {
		t.Error("archive must not remain after a cancelled encrypt")
	}
}

func TestVerifyPassword(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	if err := v.VerifyPassword([]byte("pw")); !errors.Is(err, ErrNotEncrypted) {
		t.Fatalf("expected ErrNotEncrypted, got %v", err)
	}

	addAccounts(t, v, account.Record{Name: "a", Username: "u", Password: "p"})
	if err := v.Encrypt(ctx, []byte("pw")); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if err := v.VerifyPassword([]byte("pw")); err != nil {
		t.Errorf("VerifyPassword failed: %v", err)
	}
	if err := v.VerifyPassword([]byte("nope")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}
	if exists(v.Locations().Vault) || exists(v.Locations().Archive) {
		t.Error("VerifyPassword must not write to disk")
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	addAccounts(t, v, account.Record{Name: "a", Username: "u", Password: "p"})
	if err := v.Encrypt(ctx, []byte("old")); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if err := v.ChangePassword(ctx, []byte("wrong"), []byte("new")); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if err := v.ChangePassword(ctx, []byte("old"), []byte("new")); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if err := v.VerifyPassword([]byte("old")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("old password should fail, got %v", err)
	}
	if err := v.Decrypt(ctx, []byte("new"), false); err != nil {
		t.Fatalf("Decrypt with new password failed: %v", err)
	}
}

func TestCorruptArchive(t *testing.T) {
	v := newTestVault(t)
	if err := os.WriteFile(v.Locations().Encrypted, []byte("garbage"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	err := v.Decrypt(context.Background(), []byte("pw"), false)
	if !errors.Is(err, ErrCipherFailed) {
		t.Fatalf("expected ErrCipherFailed, got %v", err)
	}
	if OutcomeOf(err) != OutcomeToolFailure {
		t.Errorf("expected %v, got %v", OutcomeToolFailure, OutcomeOf(err))
	}
	if exists(v.Locations().Archive) {
		t.Error("archive must not be created for a corrupt input")
	}
}

func TestStateTransitions(t *testing.T) {
	v := newTestVault(t)
	loc := v.Locations()

	if v.State() != StateEmpty {
		t.Errorf("expected %v, got %v", StateEmpty, v.State())
	}

	addAccounts(t, v)
	if v.State() != StatePlain {
		t.Errorf("expected %v, got %v", StatePlain, v.State())
	}

	if err := os.RemoveAll(loc.Vault); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(loc.Archive, []byte("leftover"), 0600); err != nil {
		t.Fatal(err)
	}
	if v.State() != StateTransient || !v.Interrupted() {
		t.Errorf("expected %v with interrupted flag, got %v", StateTransient, v.State())
	}
}

func TestVaultID(t *testing.T) {
	v := newTestVault(t)

	if _, err := v.GetVaultID(); !errors.Is(err, ErrNoVaultID) {
		t.Fatalf("expected ErrNoVaultID, got %v", err)
	}
	if exists(v.Locations().Meta) {
		t.Error("GetVaultID must not create the metadata database")
	}

	id, err := v.GetOrCreateVaultID()
	if err != nil {
		t.Fatalf("GetOrCreateVaultID failed: %v", err)
	}
	again, err := v.GetVaultID()
	if err != nil {
		t.Fatalf("GetVaultID failed: %v", err)
	}
	if id != again {
		t.Errorf("vault ID changed: %s != %s", id, again)
	}
}

func TestDeleteVault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vault")
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "f"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := DeleteVault(dir); err != nil {
		t.Fatalf("DeleteVault failed: %v", err)
	}
	if exists(dir) {
		t.Error("vault should be removed")
	}
	if err := DeleteVault(dir); err != nil {
		t.Errorf("DeleteVault on missing path should succeed, got %v", err)
	}
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want Outcome
	}{
		{nil, OutcomeSuccess},
		{fmt.Errorf("x: %w", ErrWrongPassword), OutcomeBadPassphrase},
		{fmt.Errorf("%w: tar", ErrArchiveFailed), OutcomeToolFailure},
		{ErrCipherFailed, OutcomeToolFailure},
		{os.ErrPermission, OutcomeIOError},
		{ErrVaultNotFound, OutcomeIOError},
	}
	for _, tt := range tests {
		if got := OutcomeOf(tt.err); got != tt.want {
			t.Errorf("OutcomeOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	addAccounts(t, v,
		account.Record{Name: "a", Username: "u", Password: "p"},
		account.Record{Name: "b", Username: "u", Password: "p"},
	)
	if err := v.Encrypt(ctx, []byte("pw")); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	status, err := v.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.State != StateEncrypted {
		t.Errorf("expected %v, got %v", StateEncrypted, status.State)
	}
	if !status.AccountsKnown || status.Accounts != 2 {
		t.Errorf("expected 2 recorded accounts, got %d (known=%v)", status.Accounts, status.AccountsKnown)
	}
	if status.KDFIterations != crypto.MinIterations {
		t.Errorf("expected %d iterations, got %d", crypto.MinIterations, status.KDFIterations)
	}
	if status.EncryptedSize == 0 {
		t.Error("expected non-zero encrypted size")
	}
	if status.LastEncrypted.IsZero() {
		t.Error("expected last encrypted timestamp")
	}
	if status.Created.IsZero() || status.Created.After(status.LastEncrypted) {
		t.Errorf("created %v should precede last encrypted %v", status.Created, status.LastEncrypted)
	}
}
