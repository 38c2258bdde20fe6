package crypto

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const envelopeVersion = 1

var (
	envelopeMagic = []byte("FMPV")

	ErrInvalidEnvelope = errors.New("not an fmp encrypted archive")
)

// EnvelopeHeaderSize is the length of the plaintext header preceding the nonce
const EnvelopeHeaderSize = 4 + 1 + 4 + SaltSize

// Seal encrypts plaintext under a key derived from password with a fresh salt.
// The header (magic, version, iterations, salt) is bound to the ciphertext as additional data.
func Seal(password, plaintext []byte, iterations int) ([]byte, error) {
	kdf, err := NewKDF(iterations)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 0, EnvelopeHeaderSize)
	header = append(header, envelopeMagic...)
	header = append(header, envelopeVersion)
	header = binary.BigEndian.AppendUint32(header, uint32(kdf.Iterations))
	header = append(header, kdf.Salt...)

	key := kdf.DeriveKey(password)
	enc := NewEncryptor(key)
	defer enc.Destroy()

	ciphertext, err := enc.Encrypt(plaintext, header)
	if err != nil {
		return nil, err
	}

	return append(header, ciphertext...), nil
}

// Open decrypts an envelope produced by Seal.
// Returns ErrAuthFailed on a wrong password or modified data.
func Open(password, envelope []byte) ([]byte, error) {
	kdf, err := parseHeader(envelope)
	if err != nil {
		return nil, err
	}

	key := kdf.DeriveKey(password)
	enc := NewEncryptor(key)
	defer enc.Destroy()

	return enc.Decrypt(envelope[EnvelopeHeaderSize:], envelope[:EnvelopeHeaderSize])
}

// Iterations reports the KDF iteration count recorded in an envelope header
func Iterations(envelope []byte) (int, error) {
	kdf, err := parseHeader(envelope)
	if err != nil {
		return 0, err
	}
	return kdf.Iterations, nil
}

func parseHeader(envelope []byte) (*KDF, error) {
	if len(envelope) < EnvelopeHeaderSize+NonceSize+TagSize {
		return nil, ErrInvalidEnvelope
	}
	if !bytes.Equal(envelope[:4], envelopeMagic) {
		return nil, ErrInvalidEnvelope
	}
	if envelope[4] != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidEnvelope, envelope[4])
	}

	iterations := binary.BigEndian.Uint32(envelope[5:9])
	if iterations < MinIterations || iterations > MaxIterations {
		return nil, fmt.Errorf("%w: iteration count %d out of range", ErrInvalidEnvelope, iterations)
	}

	salt := make([]byte, SaltSize)
	copy(salt, envelope[9:EnvelopeHeaderSize])

	return &KDF{Salt: salt, Iterations: int(iterations)}, nil
}
