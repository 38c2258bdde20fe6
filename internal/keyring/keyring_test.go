package keyring

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestSaveGetDelete(t *testing.T) {
	keyring.MockInit()

	if HasPassword("vault-1") {
		t.Fatal("expected no password before save")
	}

	if err := SavePassword("vault-1", "hunter2"); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}
	if !HasPassword("vault-1") {
		t.Error("expected password after save")
	}

	got, err := GetPassword("vault-1")
	if err != nil {
		t.Fatalf("GetPassword failed: %v", err)
	}
	if got != "hunter2" {
		t.Errorf("got %q, want hunter2", got)
	}

	if err := DeletePassword("vault-1"); err != nil {
		t.Fatalf("DeletePassword failed: %v", err)
	}
	if HasPassword("vault-1") {
		t.Error("expected no password after delete")
	}
}

func TestHasPasswordEmptyID(t *testing.T) {
	keyring.MockInit()

	if HasPassword("") {
		t.Error("empty vault ID should never have a password")
	}
}

func TestEmptyVaultID(t *testing.T) {
	keyring.MockInit()

	if err := SavePassword("", "pw"); !errors.Is(err, ErrNoVaultID) {
		t.Errorf("SavePassword: expected ErrNoVaultID, got %v", err)
	}
	if _, err := GetPassword(""); !errors.Is(err, ErrNoVaultID) {
		t.Errorf("GetPassword: expected ErrNoVaultID, got %v", err)
	}
	if err := DeletePassword(""); !errors.Is(err, ErrNoVaultID) {
		t.Errorf("DeletePassword: expected ErrNoVaultID, got %v", err)
	}
}

func TestMissingEntry(t *testing.T) {
	keyring.MockInit()

	if _, err := GetPassword("vault-2"); !errors.Is(err, ErrNotStored) {
		t.Errorf("GetPassword: expected ErrNotStored, got %v", err)
	}
	if err := DeletePassword("vault-2"); !errors.Is(err, ErrNotStored) {
		t.Errorf("DeletePassword: expected ErrNotStored, got %v", err)
	}
}
