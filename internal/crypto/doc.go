// Package crypto provides the passphrase cipher used for the encrypted vault archive.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from the passphrase via PBKDF2
//   - 12-byte random nonce per encryption operation
//   - Authenticated encryption, so a wrong passphrase and tampering both fail to open
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 32-byte random salt, fresh for every sealed envelope
//   - 210,000 iterations by default (OWASP minimum recommendation)
//
// Envelope layout (see Seal):
//
//	"FMPV" | version (1 byte) | iterations (uint32 BE) | salt (32) | nonce (12) | ciphertext+tag
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Encryptor.Destroy() when done with encryption operations
package crypto
