package database

import (
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis"
)

const usersRedisKey = "RELAY_USERS"

// InitRedis return a redis instance after a successful ping
func InitRedis(ip string, port int, pass string, db int) (*redis.Client, error) {
	redisdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", ip, port),
		Password: pass,
		DB:       db,
	})
	if _, err := redisdb.Ping().Result(); err != nil {
		redisdb.Close()
		return nil, err
	}
	return redisdb, nil
}

// RedisUserStore keeps users as JSON values in one hash, keyed by username
type RedisUserStore struct {
	client *redis.Client
	key    string
}

// NewRedisUserStore NewRedisUserStore
func NewRedisUserStore(client *redis.Client) *RedisUserStore {
	return &RedisUserStore{client: client, key: usersRedisKey}
}

// Load Load
func (s *RedisUserStore) Load() ([]User, error) {
	res, err := s.client.HGetAll(s.key).Result()
	if err != nil {
		return nil, err
	}
	users := make([]User, 0, len(res))
	for name, item := range res {
		user := User{}
		if err := json.Unmarshal([]byte(item), &user); err != nil {
			return nil, fmt.Errorf("%s: %w", name, ErrCorruptRecord)
		}
		users = append(users, user)
	}
	return users, nil
}

// Save replaces the hash inside MULTI/EXEC
func (s *RedisUserStore) Save(users []User) error {
	_, err := s.client.TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.Del(s.key)
		for _, u := range users {
			val, err := json.Marshal(u)
			if err != nil {
				return err
			}
			pipe.HSet(s.key, u.Username, val)
		}
		return nil
	})
	return err
}
