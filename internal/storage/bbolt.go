package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket = []byte("config") // Format version, created, vault ID, KDF iterations
	StateBucket  = []byte("state")  // Lifecycle timestamps and counters
)

// Config keys
var (
	ConfigVersion = []byte("version")
	ConfigCreated = []byte("created")
	ConfigVaultID = []byte("vault_id")
	ConfigIters   = []byte("iterations")
)

// State keys
var (
	StateEncrypted    = []byte("last_encrypted")
	StateDecrypted    = []byte("last_decrypted")
	StateAccountCount = []byte("account_count")
)

var ErrNotFound = errors.New("key not found")

const openTimeout = time.Second

// Storage provides BBolt-based metadata storage for fmp
type Storage struct {
	db *bolt.DB
}

// Open opens or creates the metadata database and ensures its buckets exist
func Open(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, StateBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}
		created, _ := time.Now().MarshalBinary()
		return config.Put(ConfigCreated, created)
	})
}

func (s *Storage) putTime(bucket, key []byte, t time.Time) error {
	data, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key, data)
	})
}

func (s *Storage) getTime(bucket, key []byte) (time.Time, error) {
	var t time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get(key)
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return t.UnmarshalBinary(data)
	})
	return t, err
}

func (s *Storage) putUint32(bucket, key []byte, v uint32) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, v)
		return tx.Bucket(bucket).Put(key, buf)
	})
}

func (s *Storage) getUint32(bucket, key []byte) (uint32, error) {
	var v uint32
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get(key)
		if data == nil || len(data) != 4 {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		v = binary.BigEndian.Uint32(data)
		return nil
	})
	return v, err
}

// GetCreated returns when the metadata database was created
func (s *Storage) GetCreated() (time.Time, error) {
	return s.getTime(ConfigBucket, ConfigCreated)
}

// SetIterations stores the KDF iterations used for the last encryption
func (s *Storage) SetIterations(iterations uint32) error {
	return s.putUint32(ConfigBucket, ConfigIters, iterations)
}

// GetIterations retrieves the KDF iterations
func (s *Storage) GetIterations() (uint32, error) {
	return s.getUint32(ConfigBucket, ConfigIters)
}

// MarkEncrypted records a completed encryption
func (s *Storage) MarkEncrypted(at time.Time, accounts int) error {
	if err := s.putTime(StateBucket, StateEncrypted, at); err != nil {
		return err
	}
	return s.putUint32(StateBucket, StateAccountCount, uint32(accounts))
}

// MarkDecrypted records a completed decryption
func (s *Storage) MarkDecrypted(at time.Time) error {
	return s.putTime(StateBucket, StateDecrypted, at)
}

// GetLastEncrypted returns the time of the last completed encryption
func (s *Storage) GetLastEncrypted() (time.Time, error) {
	return s.getTime(StateBucket, StateEncrypted)
}

// GetLastDecrypted returns the time of the last completed decryption
func (s *Storage) GetLastDecrypted() (time.Time, error) {
	return s.getTime(StateBucket, StateDecrypted)
}

// GetAccountCount returns the number of accounts at the last encryption
func (s *Storage) GetAccountCount() (int, error) {
	v, err := s.getUint32(StateBucket, StateAccountCount)
	return int(v), err
}

// GetVaultID retrieves the vault ID from config bucket
func (s *Storage) GetVaultID() (string, error) {
	var vaultID string
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(ConfigBucket).Get(ConfigVaultID)
		if data == nil {
			return fmt.Errorf("%w: vault_id", ErrNotFound)
		}
		vaultID = string(data)
		return nil
	})
	return vaultID, err
}

// GetOrCreateVaultID retrieves existing vault ID or generates a new one
func (s *Storage) GetOrCreateVaultID() (string, error) {
	var vaultID string
	err := s.db.Update(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if data := config.Get(ConfigVaultID); data != nil {
			vaultID = string(data)
			return nil
		}
		vaultID = uuid.NewString()
		return config.Put(ConfigVaultID, []byte(vaultID))
	})
	if err != nil {
		return "", fmt.Errorf("failed to create vault ID: %w", err)
	}
	return vaultID, nil
}
