package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/illarion/fmp/internal/archive"
	"github.com/illarion/fmp/internal/config"
	"github.com/illarion/fmp/internal/core"
	"github.com/illarion/fmp/internal/crypto"
	"github.com/illarion/fmp/internal/keyring"
	"github.com/illarion/fmp/internal/paths"
)

// PasswordSource indicates where a password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

var stdin = bufio.NewReader(os.Stdin)

// openVault resolves locations and configuration, exiting on failure
func openVault() (*core.Vault, config.Config) {
	loc, err := paths.Resolve()
	if err != nil {
		HandleError(err)
	}

	cfg, err := config.Load(loc.Config)
	if err != nil {
		HandleError(err)
	}

	warnInterrupted(loc)

	return core.New(loc, core.Options{Iterations: cfg.KDFIterations}), cfg
}

func warnInterrupted(loc paths.Locations) {
	if _, err := os.Stat(loc.Archive); err == nil {
		fmt.Fprintf(os.Stderr, "warning: %s is left over from an interrupted run and holds plaintext; remove it once the vault is intact\n", loc.Archive)
	}
}

// GetPassword retrieves password from environment or prompts user
// The caller is responsible for calling crypto.ClearBytes on the returned password
func GetPassword(prompt string) ([]byte, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, nil
	}

	password, err := core.ReadPassword(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// GetPasswordOrExit is like GetPassword but exits on error
func GetPasswordOrExit(prompt string) []byte {
	password, err := GetPassword(prompt)
	if err != nil {
		HandleError(err)
	}
	return password
}

// GetPasswordWithRetry resolves the vault password from the environment, the
// keyring or a prompt, in that order. A keyring entry that fails verification
// is reported and the user is prompted instead.
func GetPasswordWithRetry(prompt, vaultID string, verify func([]byte) error) ([]byte, PasswordSource, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		if err := verify(password); err != nil {
			crypto.ClearBytes(password)
			return nil, SourceEnv, err
		}
		return password, SourceEnv, nil
	}

	if vaultID != "" {
		if stored, err := keyring.GetPassword(vaultID); err == nil {
			password := []byte(stored)
			err := verify(password)
			if err == nil {
				return password, SourceKeyring, nil
			}
			crypto.ClearBytes(password)
			if !errors.Is(err, core.ErrWrongPassword) {
				return nil, SourceKeyring, err
			}
			fmt.Fprintln(os.Stderr, "warning: password in keyring is out of date")
		}
	}

	password, err := core.ReadPassword(prompt)
	if err != nil {
		return nil, SourcePrompt, err
	}
	if err := verify(password); err != nil {
		crypto.ClearBytes(password)
		return nil, SourcePrompt, err
	}
	return password, SourcePrompt, nil
}

// GetNewPassword returns the password to encrypt with: environment, then the
// keyring entry for vaultID, then a confirmed prompt
func GetNewPassword(vaultID string) ([]byte, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, nil
	}
	if vaultID != "" {
		if stored, err := keyring.GetPassword(vaultID); err == nil {
			return []byte(stored), nil
		}
	}
	return core.ReadPasswordConfirm("Enter password: ")
}

// OfferToSavePassword asks whether to store a typed password in the OS keyring
func OfferToSavePassword(vaultID string, password []byte) {
	if vaultID == "" || keyring.HasPassword(vaultID) {
		return
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}

	if !confirm("Save password to OS keyring? [y/N]: ") {
		return
	}
	if err := keyring.SavePassword(vaultID, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save to keyring: %s\n", err)
		return
	}
	fmt.Println("Password saved to keyring")
}

func confirm(prompt string) bool {
	answer := readLine(prompt)
	return answer == "y" || answer == "yes"
}

func readLine(prompt string) string {
	fmt.Print(prompt)
	line, _ := stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

// printError writes the user-facing message for err to stderr
func printError(err error) {
	switch core.OutcomeOf(err) {
	case core.OutcomeBadPassphrase:
		fmt.Fprintln(os.Stderr, "Bad decrypt!")
		return
	case core.OutcomeToolFailure:
		if errors.Is(err, archive.ErrUnsafeEntry) {
			fmt.Fprintf(os.Stderr, "Error: encrypted vault contains unsafe entries: %s\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		return
	}

	switch {
	case errors.Is(err, paths.ErrHomeDirectoryUnavailable):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Set %s to choose where the vault lives\n", paths.HomeEnv)
	case errors.Is(err, core.ErrVaultNotFound):
		fmt.Fprintf(os.Stderr, "Error: no plaintext vault to encrypt\n")
		fmt.Fprintf(os.Stderr, "Use 'fmp add <account>' to create one\n")
	case errors.Is(err, core.ErrNotEncrypted):
		fmt.Fprintf(os.Stderr, "Error: no encrypted vault found\n")
	case errors.Is(err, core.ErrAlreadyDecrypted):
		fmt.Fprintf(os.Stderr, "Error: vault is already decrypted\n")
		fmt.Fprintf(os.Stderr, "Use 'fmp decrypt --force' to replace it with the encrypted copy; local changes are lost\n")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// HandleError reports err and exits with status 1
func HandleError(err error) {
	printError(err)
	os.Exit(1)
}
