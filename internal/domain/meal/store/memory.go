package store

import (
	"context"
	"sync"
)

type memoryStore struct {
	mutex  sync.RWMutex
	mealID string
	set    bool
}

// NewMemory builds an in-memory reference store. The reference does not
// survive a process restart; intended for tests and throwaway deployments.
func NewMemory(Config) Store {
	return &memoryStore{}
}

func (s *memoryStore) Save(_ context.Context, mealID string) error {
	s.mutex.Lock()
	s.mealID = mealID
	s.set = true
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Load(context.Context) (string, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.set {
		return "", false, nil
	}
	return s.mealID, true, nil
}

func (s *memoryStore) Clear(context.Context) error {
	s.mutex.Lock()
	s.mealID = ""
	s.set = false
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Close(context.Context) error {
	return nil
}
