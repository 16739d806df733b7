package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDbUserStoreSqlite(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	engine, err := InitDb("sqlite3", filepath.Join(dir, "relay.db"))
	require.NoError(t, err)
	defer engine.Close()

	store, err := NewDbUserStore(engine)
	require.NoError(t, err)

	users, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, users)

	want := []User{
		{Username: "alice", RealName: "Alice", Password: "pw"},
		{Username: "bob", RealName: "bob", Password: "pw2"},
	}
	require.NoError(t, store.Save(want))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Save(want[1:]))
	got, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, want[1:], got)
}

func TestDbMessageStoreSqlite(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	engine, err := InitDb("sqlite3", filepath.Join(dir, "relay.db"))
	require.NoError(t, err)
	defer engine.Close()

	store := NewDbMessageStore(engine)
	msgs := []*ChatMsg{
		{RoomID: 1000, Sender: "alice", SenderName: "Alice", Text: "hi", SentAt: time.Now()},
		{RoomID: 1001, Sender: "bob", SenderName: "bob", Text: "yo", SentAt: time.Now()},
	}
	require.NoError(t, store.SaveChatMsg(msgs))
	require.NoError(t, store.SaveChatMsg(nil))

	var saved []ChatMsg
	require.NoError(t, engine.Asc("id").Find(&saved))
	require.Len(t, saved, 2)
	assert.Equal(t, "hi", saved[0].Text)
	assert.Equal(t, int32(1001), saved[1].RoomID)
}

func TestDbMessageStoreWithoutEngine(t *testing.T) {
	assert.NoError(t, NewDbMessageStore(nil).SaveChatMsg([]*ChatMsg{{Text: "x"}}))
}
