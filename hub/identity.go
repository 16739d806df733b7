package hub

import (
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/chat-relay/database"
)

var (
	// ErrUserExists insert of a username already registered
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound no such registered user
	ErrUserNotFound = errors.New("user not found")
	// ErrPasswordMismatch old password did not verify
	ErrPasswordMismatch = errors.New("password mismatch")
	// ErrConfirmMismatch new password and confirmation differ
	ErrConfirmMismatch = errors.New("new passwords do not match")
)

// IdentityStore is the registry of known users. Every mutation is written
// through to the backing UserStore before the lock is released.
type IdentityStore struct {
	mu    sync.Mutex
	users map[string]database.User
	store database.UserStore
	hash  bool
}

// NewIdentityStore loads every record from store. With hash set, passwords
// written from now on are stored as bcrypt hashes.
func NewIdentityStore(store database.UserStore, hash bool) (*IdentityStore, error) {
	records, err := store.Load()
	if err != nil {
		return nil, err
	}
	users := make(map[string]database.User, len(records))
	for _, u := range records {
		if _, ok := users[u.Username]; ok {
			log.Printf("identity: duplicate record for %q, keeping the first", u.Username)
			continue
		}
		users[u.Username] = u
	}
	return &IdentityStore{users: users, store: store, hash: hash}, nil
}

// Find exact match lookup
func (s *IdentityStore) Find(username string) (database.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	return u, ok
}

// Exists Exists
func (s *IdentityStore) Exists(username string) bool {
	_, ok := s.Find(username)
	return ok
}

// RealName RealName
func (s *IdentityStore) RealName(username string) (string, bool) {
	u, ok := s.Find(username)
	return u.RealName, ok
}

// Verify checks password against the stored one
func (s *IdentityStore) Verify(username, password string) (found, ok bool) {
	u, found := s.Find(username)
	if !found {
		return false, false
	}
	return true, database.PasswordMatches(u.Password, password, s.hash)
}

// Insert adds u unless the username is taken, then persists
func (s *IdentityStore) Insert(u database.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Username]; ok {
		return ErrUserExists
	}
	pass, err := s.encode(u.Password)
	if err != nil {
		return err
	}
	u.Password = pass
	s.users[u.Username] = u
	s.persist()
	return nil
}

// ChangePassword verifies old, checks newPass against confirm and stores it
func (s *IdentityStore) ChangePassword(username, old, newPass, confirm string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return ErrUserNotFound
	}
	if !database.PasswordMatches(u.Password, old, s.hash) {
		return ErrPasswordMismatch
	}
	if newPass != confirm {
		return ErrConfirmMismatch
	}
	pass, err := s.encode(newPass)
	if err != nil {
		return err
	}
	u.Password = pass
	s.users[username] = u
	s.persist()
	return nil
}

// SetRealName SetRealName
func (s *IdentityStore) SetRealName(username, realname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return ErrUserNotFound
	}
	u.RealName = realname
	s.users[username] = u
	s.persist()
	return nil
}

// Len number of registered users
func (s *IdentityStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *IdentityStore) encode(password string) (string, error) {
	if !s.hash {
		return password, nil
	}
	return database.HashPassword(password)
}

// persist must be called with mu held. A failed write is logged, memory keeps
// the change.
func (s *IdentityStore) persist() {
	users := make([]database.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	if err := s.store.Save(users); err != nil {
		log.Printf("identity: persist %d users: %v", len(users), err)
	}
}
