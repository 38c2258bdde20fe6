// Package core provides the fmp vault lifecycle.
//
// The vault moves between two resting states:
//   - Plain: the ~/.fmpVault directory holds one record file per account
//   - Encrypted: only ~/.fmpVault.tar.gz.gpg exists
//
// Encrypt archives the vault to ~/.fmpVault.tar.gz, seals the archive with a
// passphrase, and removes the archive and the plaintext directory. Decrypt reverses
// this and keeps the encrypted copy as a backup until the next Encrypt replaces it.
// The archive is transient and never survives a completed operation.
//
// Operations return errors instead of exiting; OutcomeOf classifies them
// for the command layer.
package core
