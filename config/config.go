package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-ini/ini"
	"github.com/joho/godotenv"
)

const (
	// DefaultConfigFile is read when no -c flag is given
	DefaultConfigFile = "conf.ini"
	// DefaultEnvFile optional .env overlay
	DefaultEnvFile = ".env"

	defaultUserFile    = "users.db"
	defaultJournalFile = "chat.journal"
	defaultSqliteFile  = "relay.db"
)

// Store backends
const (
	StoreFile    = "file"
	StoreRedis   = "redis"
	StoreMysql   = "mysql"
	StoreSqlite3 = "sqlite3"
)

// ServerConfig ServerConfig
type ServerConfig struct {
	Listen   string `ini:"listen"`
	WSListen string `ini:"ws_listen"`
	Origin   string `ini:"origin"`
	Name     string `ini:"name"`
	MOTD     string `ini:"motd"`
	DataDir  string `ini:"data_dir"`
}

// PeerConfig PeerConfig
type PeerConfig struct {
	WriteWait    time.Duration `ini:"write_wait"`
	PingPeriod   time.Duration `ini:"ping_period"`
	MaxFrameSize int           `ini:"max_frame_size"`
}

// StoreConfig selects where user records live
type StoreConfig struct {
	Backend       string `ini:"backend"`
	File          string `ini:"file"`
	HashPasswords bool   `ini:"hash_passwords"`
}

// RedisConfig redis config
type RedisConfig struct {
	IP       string `ini:"ip"`
	Port     int    `ini:"port"`
	Password string `ini:"password"`
	Db       int    `ini:"db"`
}

// MysqlConfig database config, also used for sqlite3
type MysqlConfig struct {
	Driver string `ini:"driver"`
	Source string `ini:"source"`
}

// ArchiveConfig chat archive
type ArchiveConfig struct {
	Enabled       bool          `ini:"enabled"`
	File          string        `ini:"file"`
	FlushInterval time.Duration `ini:"flush_interval"`
}

// Config 系统配置信息
type Config struct {
	Server  ServerConfig
	Peer    PeerConfig
	Store   StoreConfig
	Redis   RedisConfig
	Mysql   MysqlConfig
	Archive ArchiveConfig
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:   ":7070",
			WSListen: ":7071",
			Name:     "SERVER",
			MOTD:     "Welcome to the relay. Type /help for commands.",
			DataDir:  "./data",
		},
		Peer: PeerConfig{
			WriteWait:  10 * time.Second,
			PingPeriod: 50 * time.Second,
		},
		Store: StoreConfig{
			Backend: StoreFile,
		},
		Redis: RedisConfig{
			IP:   "127.0.0.1",
			Port: 6379,
		},
		Mysql: MysqlConfig{
			Driver: StoreSqlite3,
		},
		Archive: ArchiveConfig{
			FlushInterval: time.Second,
		},
	}
}

// envOverrides maps RELAY_* variables onto ini keys
var envOverrides = []struct {
	env, section, key string
}{
	{"RELAY_LISTEN", "server", "listen"},
	{"RELAY_WS_LISTEN", "server", "ws_listen"},
	{"RELAY_ORIGIN", "server", "origin"},
	{"RELAY_MOTD", "server", "motd"},
	{"RELAY_DATA_DIR", "server", "data_dir"},
	{"RELAY_STORE", "store", "backend"},
	{"RELAY_STORE_FILE", "store", "file"},
	{"RELAY_HASH_PASSWORDS", "store", "hash_passwords"},
	{"RELAY_REDIS_IP", "redis", "ip"},
	{"RELAY_REDIS_PORT", "redis", "port"},
	{"RELAY_REDIS_PASSWORD", "redis", "password"},
	{"RELAY_DB_DRIVER", "mysql", "driver"},
	{"RELAY_DB_SOURCE", "mysql", "source"},
	{"RELAY_ARCHIVE", "archive", "enabled"},
}

// Load reads file on top of the defaults. A missing file or env file is not
// an error; RELAY_* variables, including those from envFile, win over ini.
func Load(file, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: %s: %w", envFile, err)
		}
	}

	cfg, err := ini.LooseLoad(file)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", file, err)
	}
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.env); ok {
			cfg.Section(o.section).Key(o.key).SetValue(v)
		}
	}

	config := Default()
	sections := []struct {
		name string
		v    interface{}
	}{
		{"server", &config.Server},
		{"peer", &config.Peer},
		{"store", &config.Store},
		{"redis", &config.Redis},
		{"mysql", &config.Mysql},
		{"archive", &config.Archive},
	}
	for _, s := range sections {
		if err := cfg.Section(s.name).MapTo(s.v); err != nil {
			return nil, fmt.Errorf("config: [%s]: %w", s.name, err)
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StoreFile, StoreRedis, StoreMysql, StoreSqlite3:
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Server.Listen == "" && c.Server.WSListen == "" {
		return fmt.Errorf("config: no listen address")
	}
	if c.Server.Name == "" {
		c.Server.Name = Default().Server.Name
	}
	if c.Store.File == "" {
		c.Store.File = filepath.Join(c.Server.DataDir, defaultUserFile)
	}
	// a database backend implies the driver used for the archive too
	if c.Store.Backend == StoreMysql || c.Store.Backend == StoreSqlite3 {
		c.Mysql.Driver = c.Store.Backend
	}
	if c.Mysql.Driver == StoreSqlite3 && c.Mysql.Source == "" {
		c.Mysql.Source = filepath.Join(c.Server.DataDir, defaultSqliteFile)
	}
	if c.Archive.File == "" {
		c.Archive.File = filepath.Join(c.Server.DataDir, defaultJournalFile)
	}
	return nil
}

// EnsureDataDir creates the data directory
func (c *Config) EnsureDataDir() error {
	if c.Server.DataDir == "" {
		return nil
	}
	if _, err := os.Stat(c.Server.DataDir); err != nil {
		log.Printf("config: creating data dir %s", c.Server.DataDir)
		return os.MkdirAll(c.Server.DataDir, 0755)
	}
	return nil
}
