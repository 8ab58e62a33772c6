// Package badgerstore persists the durable client state in an embedded
// BadgerDB instance under the user's data directory. Values are
// encrypted at rest with AES-GCM when a device secret is configured.
package badgerstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"

	apperrors "github.com/tempora-io/tempora-desktop/internal/errors"
	"github.com/tempora-io/tempora-desktop/statestore"
)

var _ statestore.Store = (*BadgerStore)(nil)

// scrypt parameters for deriving the at-rest key from the device
// secret.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	keyLength    = 32
	keySaltValue = "tempora-desktop-state-v1"
)

// Options configures BadgerStore construction.
type Options struct {
	// InMemory runs Badger without disk persistence (tests only).
	InMemory bool

	// DeviceSecret, when non-empty, enables AES-GCM encryption of all
	// stored values with a key derived from it.
	DeviceSecret string
}

// BadgerStore is the production Store implementation.
type BadgerStore struct {
	db   *badger.DB
	aead cipher.AEAD
}

// Open opens (or creates) the store at dir.
func Open(dir string, opts Options) (*BadgerStore, error) {
	badgerOpts := badger.DefaultOptions(dir).
		WithInMemory(opts.InMemory).
		WithLogger(nil)
	if opts.InMemory {
		badgerOpts.Dir = ""
		badgerOpts.ValueDir = ""
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, errors.Wrap(err, "[badgerstore.Open] badger.Open")
	}

	store := &BadgerStore{db: db}
	if opts.DeviceSecret != "" {
		aead, err := deriveAEAD(opts.DeviceSecret)
		if err != nil {
			db.Close()
			return nil, errors.Wrap(err, "[badgerstore.Open] key derivation")
		}
		store.aead = aead
	}
	return store, nil
}

func (s *BadgerStore) Get(key string) (string, error) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(raw []byte) error {
			plain, err := s.decrypt(raw)
			if err != nil {
				return err
			}
			value = string(plain)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", apperrors.ErrKeyNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "[BadgerStore.Get] %q", key)
	}
	return value, nil
}

func (s *BadgerStore) Set(key, value string) error {
	sealed, err := s.encrypt([]byte(value))
	if err != nil {
		return errors.Wrapf(err, "[BadgerStore.Set] %q", key)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), sealed)
	})
	return errors.Wrapf(err, "[BadgerStore.Set] %q", key)
}

func (s *BadgerStore) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	return errors.Wrapf(err, "[BadgerStore.Delete] %q", key)
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) encrypt(plain []byte) ([]byte, error) {
	if s.aead == nil {
		return plain, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	// Seal appends the ciphertext to the nonce: nonce || ciphertext || tag
	return s.aead.Seal(nonce, nonce, plain, nil), nil
}

func (s *BadgerStore) decrypt(raw []byte) ([]byte, error) {
	if s.aead == nil {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	}
	nonceSize := s.aead.NonceSize()
	if len(raw) < nonceSize {
		return nil, apperrors.ErrBadCipher
	}
	nonce, cipherBytes := raw[:nonceSize], raw[nonceSize:]
	plain, err := s.aead.Open(nil, nonce, cipherBytes, nil)
	if err != nil {
		return nil, apperrors.ErrBadCipher
	}
	return plain, nil
}

func deriveAEAD(secret string) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(secret), []byte(keySaltValue), scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
