// Package archive builds and unpacks the gzip-compressed tar archive of the vault directory.
//
// Entry names are relative to the vault's parent directory, so the first path
// element of every entry is the vault directory name (".fmpVault/github").
// Extraction is confined with os.Root and only accepts regular files and directories.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/illarion/fmp/internal/security"
)

const (
	DirPerm      = 0700
	FilePerm     = 0600
	MaxEntrySize = 16 << 20 // Largest single file accepted on extraction
)

var (
	ErrUnsafeEntry   = errors.New("unsafe archive entry")
	ErrEntryTooLarge = errors.New("archive entry too large")
)

// File is a regular file read from an archive
type File struct {
	Name string // slash-separated, includes the vault directory prefix
	Data []byte
}

// Create writes a gzip-compressed tar of srcDir to dst.
// On failure dst is removed.
func Create(ctx context.Context, srcDir, dst string) (err error) {
	srcDir = filepath.Clean(srcDir)
	info, err := os.Stat(srcDir)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", srcDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", srcDir)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FilePerm)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close archive: %w", cerr)
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	parent := filepath.Dir(srcDir)
	walkErr := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(parent, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)

		switch {
		case d.IsDir():
			return tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeDir,
				Name:     name + "/",
				Mode:     DirPerm,
			})
		case d.Type().IsRegular():
			return addFile(tw, p, name)
		default:
			fmt.Printf("warning: skipping %s: not a regular file\n", name)
			return nil
		}
	})
	if walkErr != nil {
		return fmt.Errorf("failed to archive %s: %w", srcDir, walkErr)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}

func addFile(tw *tar.Writer, p, name string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	if err := tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     FilePerm,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}); err != nil {
		return err
	}

	_, err = io.Copy(tw, f)
	return err
}

// Extract unpacks the archive at src into destDir.
// Every entry must live under prefix (the vault directory name); existing files are overwritten.
func Extract(ctx context.Context, src, destDir, prefix string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	return ExtractReader(ctx, f, destDir, prefix)
}

// ExtractReader is Extract for an already open archive stream
func ExtractReader(ctx context.Context, r io.Reader, destDir, prefix string) error {
	validator, err := security.New(destDir)
	if err != nil {
		return err
	}
	defer validator.Close()

	return walk(r, func(hdr *tar.Header, tr *tar.Reader) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		name, err := entryName(validator, hdr.Name, prefix)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			return validator.MkdirAllInRoot(name, DirPerm)
		case tar.TypeReg:
			if hdr.Size > MaxEntrySize {
				return fmt.Errorf("%w: %s", ErrEntryTooLarge, hdr.Name)
			}
			if dir := path.Dir(name); dir != "." {
				if err := validator.MkdirAllInRoot(dir, DirPerm); err != nil {
					return err
				}
			}
			out, err := validator.CreateInRoot(name, FilePerm)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", name, err)
			}
			if _, err := io.CopyN(out, tr, hdr.Size); err != nil {
				out.Close()
				return fmt.Errorf("failed to write %s: %w", name, err)
			}
			return out.Close()
		default:
			return fmt.Errorf("%w: %s has unsupported type %q", ErrUnsafeEntry, hdr.Name, hdr.Typeflag)
		}
	})
}

// Read returns every regular file in the archive without touching the filesystem
func Read(r io.Reader) ([]File, error) {
	var files []File
	err := walk(r, func(hdr *tar.Header, tr *tar.Reader) error {
		if hdr.Typeflag != tar.TypeReg {
			return nil
		}
		if hdr.Size > MaxEntrySize {
			return fmt.Errorf("%w: %s", ErrEntryTooLarge, hdr.Name)
		}
		data := make([]byte, hdr.Size)
		if _, err := io.ReadFull(tr, data); err != nil {
			return fmt.Errorf("failed to read %s: %w", hdr.Name, err)
		}
		files = append(files, File{Name: strings.TrimSuffix(hdr.Name, "/"), Data: data})
		return nil
	})
	return files, err
}

func walk(r io.Reader, fn func(*tar.Header, *tar.Reader) error) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar stream: %w", err)
		}
		if err := fn(hdr, tr); err != nil {
			return err
		}
	}
}

// entryName validates an archive entry name and checks it lives under prefix
func entryName(validator *security.PathValidator, raw, prefix string) (string, error) {
	trimmed := strings.TrimSuffix(raw, "/")
	name, err := validator.ValidateAndNormalize(filepath.FromSlash(trimmed))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsafeEntry, err)
	}
	first, _, _ := strings.Cut(name, "/")
	if first != prefix {
		return "", fmt.Errorf("%w: %s is outside %s", ErrUnsafeEntry, raw, prefix)
	}
	return name, nil
}
