// Package storage provides the BBolt metadata database kept next to the vault.
//
// Database structure uses two buckets:
//   - config: format version, creation time, vault ID, KDF iterations
//   - state: timestamps of the last encrypt/decrypt and the account count at last encrypt
//
// Nothing secret is stored here: the database lets fmp status and the keyring
// lookup work without a passphrase, and survives the plaintext vault being removed.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
