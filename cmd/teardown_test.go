package cmd

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

const exitVaultEnv = "FMP_TEST_EXIT_VAULT"

// TestExitVaultHelper runs exitVault in a child process started by the tests below
func TestExitVaultHelper(t *testing.T) {
	path := os.Getenv(exitVaultEnv)
	if path == "" {
		t.Skip("helper process only")
	}
	exitVault(path)
}

func runExitVault(t *testing.T, path string) int {
	t.Helper()

	c := exec.Command(os.Args[0], "-test.run=^TestExitVaultHelper$")
	c.Env = append(os.Environ(), exitVaultEnv+"="+path)
	err := c.Run()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected the helper to exit with an error, got %v", err)
	}
	return exitErr.ExitCode()
}

func TestExitVaultRemovesAndExits(t *testing.T) {
	vault := filepath.Join(t.TempDir(), ".fmpVault")
	if err := os.MkdirAll(vault, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(vault, "github"), []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}

	if code := runExitVault(t, vault); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if _, err := os.Stat(vault); !os.IsNotExist(err) {
		t.Error("vault should be removed")
	}
}

func TestExitVaultMissingPath(t *testing.T) {
	vault := filepath.Join(t.TempDir(), ".fmpVault")

	if code := runExitVault(t, vault); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}
