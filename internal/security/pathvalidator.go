package security

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrPathEscapes  = errors.New("path escapes root")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
	ErrNotAName     = errors.New("name must be a single path element")
)

// PathValidator provides path validation and file operations that are
// confined to a root directory using the os.Root API.
type PathValidator struct {
	root     *os.Root
	rootPath string
}

// New creates a new PathValidator confined to rootPath.
// The directory must already exist.
func New(rootPath string) (*PathValidator, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open root: %w", err)
	}

	return &PathValidator{
		root:     root,
		rootPath: absPath,
	}, nil
}

// Close releases resources held by the PathValidator.
func (pv *PathValidator) Close() error {
	if pv.root != nil {
		return pv.root.Close()
	}
	return nil
}

// ValidateAndNormalize validates a user-provided path and returns a normalized
// relative path with forward slashes. It rejects:
// - Empty paths
// - Absolute paths
// - Paths that escape the root (using ..)
// - Paths that are not local (filepath.IsLocal), including Windows reserved names
func (pv *PathValidator) ValidateAndNormalize(userPath string) (string, error) {
	if userPath == "" {
		return "", ErrEmptyPath
	}

	if !filepath.IsLocal(userPath) {
		if filepath.IsAbs(userPath) || strings.HasPrefix(userPath, "/") {
			return "", fmt.Errorf("%w: %s", ErrAbsolutePath, userPath)
		}
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}

	cleanPath := filepath.Clean(userPath)
	if !filepath.IsLocal(cleanPath) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, cleanPath)
	}

	absPath := filepath.Join(pv.rootPath, cleanPath)
	relPath, err := filepath.Rel(pv.rootPath, absPath)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if strings.HasPrefix(relPath, "..") || filepath.IsAbs(relPath) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}

	return filepath.ToSlash(relPath), nil
}

// ValidateName checks that name is usable as a single file name directly inside the root.
// Hidden names (leading dot) are rejected so they never collide with bookkeeping files.
func (pv *PathValidator) ValidateName(name string) (string, error) {
	normalized, err := pv.ValidateAndNormalize(name)
	if err != nil {
		return "", err
	}
	if strings.Contains(normalized, "/") || strings.ContainsRune(name, '\\') {
		return "", fmt.Errorf("%w: %s", ErrNotAName, name)
	}
	if strings.HasPrefix(normalized, ".") {
		return "", fmt.Errorf("%w: %s", ErrNotAName, name)
	}
	return normalized, nil
}

func (pv *PathValidator) platformPath(path string) (string, error) {
	platformPath := filepath.FromSlash(path)
	if _, err := pv.ValidateAndNormalize(platformPath); err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	return platformPath, nil
}

// WriteFileInRoot writes a file within the root, truncating any existing file.
func (pv *PathValidator) WriteFileInRoot(path string, data []byte, perm os.FileMode) error {
	f, err := pv.CreateInRoot(path, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// CreateInRoot opens a file for writing within the root, creating or truncating it.
// The permission is applied even when the file already existed.
func (pv *PathValidator) CreateInRoot(path string, perm os.FileMode) (*os.File, error) {
	platformPath, err := pv.platformPath(path)
	if err != nil {
		return nil, err
	}

	f, err := pv.root.OpenFile(platformPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return nil, err
	}
	if err := f.Chmod(perm); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// MkdirAllInRoot creates a directory and any missing parents within the root.
func (pv *PathValidator) MkdirAllInRoot(path string, perm os.FileMode) error {
	platformPath, err := pv.platformPath(path)
	if err != nil {
		return err
	}

	current := ""
	for _, part := range strings.Split(filepath.ToSlash(platformPath), "/") {
		current = filepath.Join(current, part)
		info, err := pv.root.Lstat(current)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("%s: not a directory", current)
			}
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := pv.root.Mkdir(current, perm); err != nil {
			return err
		}
	}
	return nil
}

// ReadFileInRoot reads a file within the root.
func (pv *PathValidator) ReadFileInRoot(path string) ([]byte, error) {
	platformPath, err := pv.platformPath(path)
	if err != nil {
		return nil, err
	}

	f, err := pv.root.Open(platformPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// LstatInRoot stats a file within the root without following a final symlink.
func (pv *PathValidator) LstatInRoot(path string) (os.FileInfo, error) {
	platformPath, err := pv.platformPath(path)
	if err != nil {
		return nil, err
	}
	return pv.root.Lstat(platformPath)
}

// RemoveInRoot removes a file or empty directory within the root.
func (pv *PathValidator) RemoveInRoot(path string) error {
	platformPath, err := pv.platformPath(path)
	if err != nil {
		return err
	}
	return pv.root.Remove(platformPath)
}

// ReadDir lists the entries directly inside the root.
func (pv *PathValidator) ReadDir() ([]fs.DirEntry, error) {
	f, err := pv.root.Open(".")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.ReadDir(-1)
}
