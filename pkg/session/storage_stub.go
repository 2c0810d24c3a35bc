package session

import (
	"context"
	"sync"
)

type StorageStub struct {
	mu   sync.RWMutex
	data map[string]string
	err  error
}

func NewStorageStub() *StorageStub {
	return &StorageStub{data: map[string]string{}}
}

func (s *StorageStub) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return "", false, s.err
	}
	value, ok := s.data[key]
	return value, ok, nil
}

func (s *StorageStub) Set(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data[key] = value
	return nil
}

func (s *StorageStub) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.data, key)
	return nil
}

// SetError makes every following call fail with err.
func (s *StorageStub) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
