package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir, err := ioutil.TempDir("", "config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	cfg, err := Load(filepath.Join(dir, "nope.ini"), "")
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.Server.Listen, cfg.Server.Listen)
	assert.Equal(t, "SERVER", cfg.Server.Name)
	assert.Equal(t, StoreFile, cfg.Store.Backend)
	assert.Equal(t, filepath.Join("./data", defaultUserFile), cfg.Store.File)
	assert.Equal(t, 10*time.Second, cfg.Peer.WriteWait)
}

func TestLoadIni(t *testing.T) {
	dir, err := ioutil.TempDir("", "config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	file := writeTemp(t, dir, "conf.ini", `
[server]
listen = 127.0.0.1:9000
motd = hello there
data_dir = /var/lib/relay

[peer]
write_wait = 3s

[store]
backend = redis
hash_passwords = true

[redis]
port = 6380

[archive]
enabled = true
flush_interval = 250ms
`)
	cfg, err := Load(file, "")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
	assert.Equal(t, ":7071", cfg.Server.WSListen)
	assert.Equal(t, "hello there", cfg.Server.MOTD)
	assert.Equal(t, 3*time.Second, cfg.Peer.WriteWait)
	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.True(t, cfg.Store.HashPasswords)
	assert.Equal(t, "127.0.0.1", cfg.Redis.IP)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Archive.FlushInterval)
	assert.Equal(t, filepath.Join("/var/lib/relay", defaultJournalFile), cfg.Archive.File)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir, err := ioutil.TempDir("", "config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	file := writeTemp(t, dir, "conf.ini", "[server]\nlisten = :1\n")
	env := writeTemp(t, dir, ".env", "RELAY_LISTEN=:2\nRELAY_STORE=sqlite3\n")
	defer os.Unsetenv("RELAY_LISTEN")
	defer os.Unsetenv("RELAY_STORE")

	cfg, err := Load(file, env)
	require.NoError(t, err)
	assert.Equal(t, ":2", cfg.Server.Listen)
	assert.Equal(t, StoreSqlite3, cfg.Store.Backend)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	dir, err := ioutil.TempDir("", "config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	file := writeTemp(t, dir, "conf.ini", "[store]\nbackend = mongo\n")
	_, err = Load(file, "")
	assert.Error(t, err)
}

func TestLoadDatabaseBackend(t *testing.T) {
	dir, err := ioutil.TempDir("", "config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	file := writeTemp(t, dir, "conf.ini", "[server]\ndata_dir = "+dir+"\n[store]\nbackend = sqlite3\n[mysql]\ndriver = mysql\n")
	cfg, err := Load(file, "")
	require.NoError(t, err)
	assert.Equal(t, StoreSqlite3, cfg.Mysql.Driver)
	assert.Equal(t, filepath.Join(dir, defaultSqliteFile), cfg.Mysql.Source)
}
