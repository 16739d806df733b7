package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisUserStore(t *testing.T) {
	client, err := InitRedis("127.0.0.1", 6379, "", 15)
	if err != nil {
		t.Skip("redis not available:", err)
	}
	defer client.Close()

	store := NewRedisUserStore(client)
	store.key = "RELAY_USERS_TEST"
	defer client.Del(store.key)

	want := []User{
		{Username: "alice", RealName: "Alice", Password: "pw"},
		{Username: "bob", RealName: "bob", Password: "pw2"},
	}
	require.NoError(t, store.Save(want))
	got, err := store.Load()
	require.NoError(t, err)
	assert.ElementsMatch(t, want, got)

	require.NoError(t, store.Save(want[:1]))
	got, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, want[:1], got)
}
