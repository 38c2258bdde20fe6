package core

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/illarion/fmp/internal/crypto"
	"github.com/illarion/fmp/internal/git"
	"github.com/illarion/fmp/internal/storage"
)

// StatusInfo contains status information
type StatusInfo struct {
	State         State
	Interrupted   bool
	VaultPath     string
	EncryptedPath string
	Accounts      int  // Plaintext count, or the count recorded at last encrypt
	AccountsKnown bool // False when neither source is available
	EncryptedSize int64
	Created       time.Time // When the metadata database was first written
	LastEncrypted time.Time
	LastDecrypted time.Time
	Algorithm     string
	KDFIterations int
	VaultID       string
	GitStatus     *git.GitStatus
}

// Status returns the current status (no password required)
func (v *Vault) Status(ctx context.Context) (*StatusInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status := &StatusInfo{
		State:         v.State(),
		Interrupted:   v.Interrupted(),
		VaultPath:     v.loc.Vault,
		EncryptedPath: v.loc.Encrypted,
		Algorithm:     Algorithm,
	}

	if isDir(v.loc.Vault) {
		status.Accounts = countAccounts(v.loc.Vault)
		status.AccountsKnown = true
	}

	if info, err := os.Stat(v.loc.Encrypted); err == nil {
		status.EncryptedSize = info.Size()
		if iters, err := readIterations(v.loc.Encrypted); err == nil {
			status.KDFIterations = iters
		}
	}

	if isFile(v.loc.Meta) {
		if db, err := storage.Open(v.loc.Meta); err == nil {
			status.Created, _ = db.GetCreated()
			status.LastEncrypted, _ = db.GetLastEncrypted()
			status.LastDecrypted, _ = db.GetLastDecrypted()
			status.VaultID, _ = db.GetVaultID()
			if !status.AccountsKnown {
				if n, err := db.GetAccountCount(); err == nil {
					status.Accounts = n
					status.AccountsKnown = true
				}
			}
			if status.KDFIterations == 0 {
				if iters, err := db.GetIterations(); err == nil {
					status.KDFIterations = int(iters)
				}
			}
			db.Close()
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	home := filepath.Dir(v.loc.Vault)
	gitStatus, err := git.CheckGitIntegration(home,
		[]string{filepath.Base(v.loc.Vault), filepath.Base(v.loc.Archive)},
		filepath.Base(v.loc.Encrypted))
	if err == nil && gitStatus.IsRepo {
		status.GitStatus = gitStatus
	}

	return status, nil
}

// readIterations reads only the envelope header of the encrypted archive
func readIterations(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	header := make([]byte, crypto.EnvelopeHeaderSize+crypto.NonceSize+crypto.TagSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return 0, err
	}
	return crypto.Iterations(header)
}
