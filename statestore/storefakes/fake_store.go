package storefakes

import (
	"sync"

	"github.com/tempora-io/tempora-desktop/internal/errors"
	"github.com/tempora-io/tempora-desktop/statestore"
)

var _ statestore.Store = (*FakeStore)(nil)

// FakeStore is an in-memory Store for tests.
type FakeStore struct {
	values map[string]string
	lock   sync.RWMutex

	SetCalls    int
	DeleteCalls int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		values: make(map[string]string),
	}
}

func (s *FakeStore) Get(key string) (string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return "", errors.ErrKeyNotFound
	}
	return value, nil
}

func (s *FakeStore) Set(key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.SetCalls++
	s.values[key] = value
	return nil
}

func (s *FakeStore) Delete(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.DeleteCalls++
	delete(s.values, key)
	return nil
}

func (s *FakeStore) Close() error {
	return nil
}

// Len reports how many keys are stored.
func (s *FakeStore) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.values)
}
