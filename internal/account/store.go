// Package account stores one credential record per file inside the plaintext vault directory.
package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/illarion/fmp/internal/security"
)

const (
	DirPerm  = 0700
	FilePerm = 0600
)

var (
	ErrNotFound    = errors.New("account not found")
	ErrExists      = errors.New("account already exists")
	ErrInvalidName = errors.New("invalid account name")
)

// Record is a single stored credential
type Record struct {
	Name     string `json:"-"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Store reads and writes account records in the vault directory
type Store struct {
	validator *security.PathValidator
}

// EnsureVault creates the vault directory if it does not exist
func EnsureVault(dir string) error {
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}
	return nil
}

// Open opens the store rooted at the vault directory
func Open(vaultDir string) (*Store, error) {
	validator, err := security.New(vaultDir)
	if err != nil {
		return nil, err
	}
	return &Store{validator: validator}, nil
}

// Close releases the underlying directory handle
func (s *Store) Close() error {
	return s.validator.Close()
}

func (s *Store) name(name string) (string, error) {
	valid, err := s.validator.ValidateName(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	return valid, nil
}

// Names returns all account names in sorted order.
// Directories and hidden files are ignored.
func (s *Store) Names() ([]string, error) {
	entries, err := s.validator.ReadDir()
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if _, err := s.validator.ValidateName(entry.Name()); err != nil {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Read loads a single account record
func (s *Store) Read(name string) (Record, error) {
	valid, err := s.name(name)
	if err != nil {
		return Record{}, err
	}

	data, err := s.validator.ReadFileInRoot(valid)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Record{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	rec.Name = valid
	return rec, nil
}

// Exists reports whether an account record is present.
// Like Names, only regular files count; symlinks are not followed.
func (s *Store) Exists(name string) bool {
	valid, err := s.name(name)
	if err != nil {
		return false
	}
	info, err := s.validator.LstatInRoot(valid)
	return err == nil && info.Mode().IsRegular()
}

// Write creates or replaces an account record
func (s *Store) Write(rec Record) error {
	valid, err := s.name(rec.Name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", rec.Name, err)
	}

	if err := s.validator.WriteFileInRoot(valid, append(data, '\n'), FilePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", rec.Name, err)
	}
	return nil
}

// Create writes a new record, failing with ErrExists if it is already present
func (s *Store) Create(rec Record) error {
	if s.Exists(rec.Name) {
		return fmt.Errorf("%w: %s", ErrExists, rec.Name)
	}
	return s.Write(rec)
}

// Remove deletes an account record
func (s *Store) Remove(name string) error {
	valid, err := s.name(name)
	if err != nil {
		return err
	}

	if err := s.validator.RemoveInRoot(valid); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}
