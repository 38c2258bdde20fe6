package cmd

import (
	"bytes"
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/illarion/fmp/internal/core"
	"github.com/illarion/fmp/internal/keyring"
)

func verifier(want string) func([]byte) error {
	return func(password []byte) error {
		if string(password) != want {
			return core.ErrWrongPassword
		}
		return nil
	}
}

func TestGetPasswordWithRetryEnv(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(core.PasswordEnv, "from-env")

	password, source, err := GetPasswordWithRetry("", "vault-id", verifier("from-env"))
	if err != nil {
		t.Fatalf("GetPasswordWithRetry failed: %v", err)
	}
	if source != SourceEnv || string(password) != "from-env" {
		t.Errorf("got %q from %v", password, source)
	}
}

func TestGetPasswordWithRetryEnvWrong(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(core.PasswordEnv, "wrong")

	_, _, err := GetPasswordWithRetry("", "vault-id", verifier("right"))
	if !errors.Is(err, core.ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
}

func TestGetPasswordWithRetryKeyring(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(core.PasswordEnv, "")

	if err := keyring.SavePassword("vault-id", "stored"); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}

	password, source, err := GetPasswordWithRetry("", "vault-id", verifier("stored"))
	if err != nil {
		t.Fatalf("GetPasswordWithRetry failed: %v", err)
	}
	if source != SourceKeyring || string(password) != "stored" {
		t.Errorf("got %q from %v", password, source)
	}
}

func TestGetNewPasswordPrefersEnv(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(core.PasswordEnv, "from-env")

	if err := keyring.SavePassword("vault-id", "stored"); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}

	password, err := GetNewPassword("vault-id")
	if err != nil {
		t.Fatalf("GetNewPassword failed: %v", err)
	}
	if !bytes.Equal(password, []byte("from-env")) {
		t.Errorf("expected env password, got %q", password)
	}
}

func TestGetNewPasswordKeyring(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(core.PasswordEnv, "")

	if err := keyring.SavePassword("vault-id", "stored"); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}

	password, err := GetNewPassword("vault-id")
	if err != nil {
		t.Fatalf("GetNewPassword failed: %v", err)
	}
	if string(password) != "stored" {
		t.Errorf("expected keyring password, got %q", password)
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		512:             "512 bytes",
		2048:            "2.0 KB",
		3 * 1024 * 1024: "3.0 MB",
	}
	for size, want := range tests {
		if got := formatSize(size); got != want {
			t.Errorf("formatSize(%d) = %q, want %q", size, got, want)
		}
	}
}

func TestIndent(t *testing.T) {
	got := indent("-a\n+b\n", "  ")
	if got != "  -a\n  +b\n" {
		t.Errorf("indent = %q", got)
	}
}
