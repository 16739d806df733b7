package database

import "sync"

// MemUserStore keeps the last saved registry in memory
type MemUserStore struct {
	mu    sync.Mutex
	users []User
	saves int
}

// NewMemUserStore NewMemUserStore
func NewMemUserStore(users ...User) *MemUserStore {
	return &MemUserStore{users: append([]User(nil), users...)}
}

// Load Load
func (s *MemUserStore) Load() ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]User(nil), s.users...), nil
}

// Save Save
func (s *MemUserStore) Save(users []User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]User(nil), users...)
	s.saves++
	return nil
}

// Saves number of Save calls so far
func (s *MemUserStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
