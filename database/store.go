package database

import "errors"

var (
	// ErrCorruptRecord a persisted record could not be parsed
	ErrCorruptRecord = errors.New("corrupt user record")
)

// UserStore persists the identity registry. Save always receives the full
// registry and replaces whatever was stored before.
type UserStore interface {
	Load() ([]User, error)
	Save(users []User) error
}

// MessageStore message store
type MessageStore interface {
	SaveChatMsg(msgs []*ChatMsg) error
}
