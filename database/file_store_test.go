package database

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "database")
	require.NoError(t, err)
	return dir, func() { os.RemoveAll(dir) }
}

func TestFileUserStoreMissingFile(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	users, err := NewFileUserStore(filepath.Join(dir, "users.db")).Load()
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestFileUserStoreSaveLoad(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	path := filepath.Join(dir, "users.db")
	store := NewFileUserStore(path)
	want := []User{
		{Username: "alice", RealName: "Alice Smith", Password: "pw"},
		{Username: "bob", RealName: "bob", Password: "$2a$10$abcdefghijklmnopqrstuv"},
	}
	require.NoError(t, store.Save(want))

	raw, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice\tAlice Smith\tpw\nbob\tbob\t$2a$10$abcdefghijklmnopqrstuv\n", string(raw))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// a later save replaces the whole file
	require.NoError(t, store.Save(want[:1]))
	got, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, want[:1], got)

	entries, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files left behind")
}

func TestFileUserStoreCorrupt(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	path := filepath.Join(dir, "users.db")
	require.NoError(t, ioutil.WriteFile(path, []byte("alice\tAlice\tpw\nbroken line\n"), 0644))

	_, err := NewFileUserStore(path).Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptRecord))
	assert.Contains(t, err.Error(), ":2:")
}

func TestMemUserStoreCopies(t *testing.T) {
	users := []User{{Username: "alice"}}
	store := NewMemUserStore(users...)
	users[0].Username = "changed"

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "alice", got[0].Username)
	assert.Equal(t, 0, store.Saves())
	require.NoError(t, store.Save(got))
	assert.Equal(t, 1, store.Saves())
}

func TestPasswordMatches(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.True(t, IsHashed(hash))

	tests := []struct {
		stored, given string
		hashing       bool
		want          bool
	}{
		{"secret", "secret", false, true},
		{"secret", "Secret", false, false},
		{"", "", false, true},
		{"secret", "secret", true, true},
		{hash, "secret", true, true},
		{hash, "wrong", true, false},
		{hash, hash, true, false},
		// with hashing off a stored hash is just text
		{hash, "secret", false, false},
		{hash, hash, false, true},
		// clear passwords that happen to start like a hash
		{"$2a$pw", "$2a$pw", false, true},
		{"$2a$pw", "$2a$pw", true, true},
		{"$2y$", "$2y$", true, true},
		{"$2b$pw", "pw", true, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PasswordMatches(tt.stored, tt.given, tt.hashing),
			"%q vs %q hashing=%v", tt.stored, tt.given, tt.hashing)
	}
}

