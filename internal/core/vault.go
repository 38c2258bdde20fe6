package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/illarion/fmp/internal/account"
	"github.com/illarion/fmp/internal/archive"
	"github.com/illarion/fmp/internal/crypto"
	"github.com/illarion/fmp/internal/paths"
	"github.com/illarion/fmp/internal/storage"
)

const (
	DirPermSecure  = 0700 // Directory: owner rwx only
	FilePermSecure = 0600 // File: owner rw only
	Algorithm      = "AES-256-GCM, PBKDF2-HMAC-SHA256"
)

var (
	ErrVaultNotFound    = errors.New("no plaintext vault")
	ErrNotEncrypted     = errors.New("no encrypted vault")
	ErrAlreadyDecrypted = errors.New("vault is already decrypted")
	ErrWrongPassword    = errors.New("wrong password")
	ErrArchiveFailed    = errors.New("archive failed")
	ErrCipherFailed     = errors.New("encryption failed")
	ErrNoVaultID        = errors.New("vault has no ID yet")
)

// State is the on-disk state of the vault
type State int

const (
	StateEmpty     State = iota // Nothing on disk yet
	StatePlain                  // Plaintext directory only
	StateEncrypted              // Encrypted archive only
	StateBoth                   // Decrypted, encrypted copy retained
	StateTransient              // Only a leftover archive from an interrupted run
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePlain:
		return "decrypted"
	case StateEncrypted:
		return "encrypted"
	case StateBoth:
		return "decrypted (encrypted copy retained)"
	case StateTransient:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Options configures a Vault
type Options struct {
	// Iterations is the PBKDF2 iteration count for new encryptions.
	// Zero means crypto.DefaultIters.
	Iterations int
}

// Vault drives the encrypt/decrypt lifecycle for one set of locations
type Vault struct {
	loc        paths.Locations
	iterations int
}

// New creates a Vault for the given locations
func New(loc paths.Locations, opts Options) *Vault {
	iterations := opts.Iterations
	if iterations <= 0 {
		iterations = crypto.DefaultIters
	}
	return &Vault{
		loc:        loc,
		iterations: iterations,
	}
}

// Locations returns the paths this vault operates on
func (v *Vault) Locations() paths.Locations {
	return v.loc
}

// State inspects the filesystem and reports the current vault state
func (v *Vault) State() State {
	plain := isDir(v.loc.Vault)
	encrypted := isFile(v.loc.Encrypted)

	switch {
	case plain && encrypted:
		return StateBoth
	case plain:
		return StatePlain
	case encrypted:
		return StateEncrypted
	case isFile(v.loc.Archive):
		return StateTransient
	default:
		return StateEmpty
	}
}

// Interrupted reports whether a transient archive was left behind
func (v *Vault) Interrupted() bool {
	return isFile(v.loc.Archive)
}

// Encrypt archives and seals the plaintext vault, then removes the archive and the plaintext.
// Any existing encrypted archive is replaced.
func (v *Vault) Encrypt(ctx context.Context, password []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !isDir(v.loc.Vault) {
		return ErrVaultNotFound
	}

	accounts := countAccounts(v.loc.Vault)

	if err := archive.Create(ctx, v.loc.Vault, v.loc.Archive); err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveFailed, err)
	}
	defer removeTransient(v.loc.Archive)

	data, err := os.ReadFile(v.loc.Archive)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	defer crypto.ClearBytes(data)

	if err := ctx.Err(); err != nil {
		return err
	}

	sealed, err := crypto.Seal(password, data, v.iterations)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCipherFailed, err)
	}

	if err := writeAtomic(v.loc.Encrypted, sealed); err != nil {
		return fmt.Errorf("failed to write encrypted vault: %w", err)
	}

	// The encrypted copy must exist before anything plaintext is removed
	if !isFile(v.loc.Encrypted) {
		return fmt.Errorf("%w: %s missing after write", ErrCipherFailed, v.loc.Encrypted)
	}

	if err := removeTransient(v.loc.Archive); err != nil {
		return fmt.Errorf("failed to remove archive: %w", err)
	}
	if err := os.RemoveAll(v.loc.Vault); err != nil {
		return fmt.Errorf("failed to remove plaintext vault: %w", err)
	}

	v.updateMeta(func(db *storage.Storage) error {
		if err := db.SetIterations(uint32(v.iterations)); err != nil {
			return err
		}
		return db.MarkEncrypted(time.Now(), accounts)
	})

	return nil
}

// Decrypt opens the encrypted archive and restores the plaintext vault.
// The encrypted archive is kept. If the plaintext vault already exists, force
// must be set and the vault is replaced wholesale by the encrypted copy.
func (v *Vault) Decrypt(ctx context.Context, password []byte, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !isFile(v.loc.Encrypted) {
		return ErrNotEncrypted
	}
	if isDir(v.loc.Vault) && !force {
		return ErrAlreadyDecrypted
	}

	plaintext, err := v.openEncrypted(password)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(plaintext)

	if err := os.WriteFile(v.loc.Archive, plaintext, FilePermSecure); err != nil {
		removeTransient(v.loc.Archive)
		return fmt.Errorf("failed to write archive: %w", err)
	}
	defer removeTransient(v.loc.Archive)

	// Extract next to the vault so the final rename stays on one filesystem
	prefix := filepath.Base(v.loc.Vault)
	staging, err := os.MkdirTemp(filepath.Dir(v.loc.Vault), prefix+".restore-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := archive.Extract(ctx, v.loc.Archive, staging, prefix); err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveFailed, err)
	}

	if err := removeTransient(v.loc.Archive); err != nil {
		return fmt.Errorf("failed to remove archive: %w", err)
	}

	restored := filepath.Join(staging, prefix)
	if !isDir(restored) {
		return fmt.Errorf("%w: archive did not contain %s", ErrArchiveFailed, prefix)
	}

	if err := swapDir(restored, v.loc.Vault, filepath.Join(staging, "previous")); err != nil {
		return fmt.Errorf("failed to restore vault: %w", err)
	}

	v.updateMeta(func(db *storage.Storage) error {
		return db.MarkDecrypted(time.Now())
	})

	return nil
}

// VerifyPassword checks the password against the encrypted archive without touching disk
func (v *Vault) VerifyPassword(password []byte) error {
	plaintext, err := v.openEncrypted(password)
	if err != nil {
		return err
	}
	crypto.ClearBytes(plaintext)
	return nil
}

// ChangePassword re-seals the encrypted archive under a new password
func (v *Vault) ChangePassword(ctx context.Context, currentPassword, newPassword []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	plaintext, err := v.openEncrypted(currentPassword)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(plaintext)

	sealed, err := crypto.Seal(newPassword, plaintext, v.iterations)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCipherFailed, err)
	}

	if err := writeAtomic(v.loc.Encrypted, sealed); err != nil {
		return fmt.Errorf("failed to write encrypted vault: %w", err)
	}

	v.updateMeta(func(db *storage.Storage) error {
		return db.SetIterations(uint32(v.iterations))
	})
	return nil
}

// openEncrypted reads and decrypts the encrypted archive into memory
func (v *Vault) openEncrypted(password []byte) ([]byte, error) {
	envelope, err := os.ReadFile(v.loc.Encrypted)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotEncrypted
		}
		return nil, fmt.Errorf("failed to read encrypted vault: %w", err)
	}

	plaintext, err := crypto.Open(password, envelope)
	switch {
	case errors.Is(err, crypto.ErrAuthFailed):
		return nil, fmt.Errorf("%w: %w", ErrWrongPassword, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrCipherFailed, err)
	}
	return plaintext, nil
}

// GetVaultID returns the vault ID without creating the metadata database
func (v *Vault) GetVaultID() (string, error) {
	if !isFile(v.loc.Meta) {
		return "", ErrNoVaultID
	}

	db, err := storage.Open(v.loc.Meta)
	if err != nil {
		return "", err
	}
	defer db.Close()

	id, err := db.GetVaultID()
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrNoVaultID
	}
	return id, err
}

// GetOrCreateVaultID returns the vault ID, generating one if needed
func (v *Vault) GetOrCreateVaultID() (string, error) {
	db, err := storage.Open(v.loc.Meta)
	if err != nil {
		return "", err
	}
	defer db.Close()

	return db.GetOrCreateVaultID()
}

// updateMeta applies fn to the metadata database. Failures are reported, not returned:
// metadata is bookkeeping and must never fail a lifecycle operation.
func (v *Vault) updateMeta(fn func(db *storage.Storage) error) {
	db, err := storage.Open(v.loc.Meta)
	if err != nil {
		fmt.Printf("warning: cannot open vault metadata: %v\n", err)
		return
	}
	defer db.Close()

	if err := fn(db); err != nil {
		fmt.Printf("warning: failed to update vault metadata: %v\n", err)
	}
}

// DeleteVault recursively removes path. Missing paths are not an error.
func DeleteVault(path string) error {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.RemoveAll(path)
}

// writeAtomic writes data next to path and renames it into place
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, FilePermSecure); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// swapDir moves src to dst. An existing dst is parked at backup and put back
// if the move fails.
func swapDir(src, dst, backup string) error {
	parked := false
	if isDir(dst) {
		if err := os.Rename(dst, backup); err != nil {
			return err
		}
		parked = true
	}

	if err := os.Rename(src, dst); err != nil {
		if parked {
			os.Rename(backup, dst)
		}
		return err
	}
	return nil
}

func removeTransient(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func countAccounts(dir string) int {
	store, err := account.Open(dir)
	if err != nil {
		return 0
	}
	defer store.Close()

	names, err := store.Names()
	if err != nil {
		return 0
	}
	return len(names)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
