package database

import (
	"fmt"
	"log"
	"strings"

	// drivers selectable through [mysql] driver
	_ "github.com/go-sql-driver/mysql"
	"github.com/go-xorm/xorm"
	_ "github.com/mattn/go-sqlite3"
	"xorm.io/core"
)

var (
	// ErrInsertFail data insert affected zero rows
	ErrInsertFail = fmt.Errorf("data insert fail")
)

// InitDb opens an xorm engine. driver is "mysql" or "sqlite3", source is the
// driver DSN.
func InitDb(driver, source string) (*xorm.Engine, error) {
	url := source
	if driver == "mysql" {
		sep := "?"
		if strings.Contains(source, "?") {
			sep = "&"
		}
		url = fmt.Sprintf("%s%scharset=utf8&parseTime=True&loc=Local", source, sep)
	}
	engine, err := xorm.NewEngine(driver, url)
	if err != nil {
		return nil, err
	}

	// engine.ShowSQL(true)

	tbMapper := core.NewPrefixMapper(core.SnakeMapper{}, "t_")
	engine.SetTableMapper(tbMapper)

	engine.SetColumnMapper(core.SnakeMapper{})

	if err := engine.Ping(); err != nil {
		engine.Close()
		return nil, err
	}
	return engine, nil
}

// DbUserStore stores users in table t_user
type DbUserStore struct {
	engine *xorm.Engine
}

// NewDbUserStore syncs the user table and returns the store
func NewDbUserStore(engine *xorm.Engine) (*DbUserStore, error) {
	if err := engine.Sync2(new(User)); err != nil {
		return nil, err
	}
	return &DbUserStore{engine: engine}, nil
}

// Load Load
func (s *DbUserStore) Load() ([]User, error) {
	users := make([]User, 0)
	if err := s.engine.Asc("username").Find(&users); err != nil {
		return nil, err
	}
	return users, nil
}

// Save replaces the table content in one transaction
func (s *DbUserStore) Save(users []User) error {
	session := s.engine.NewSession()
	defer session.Close()

	if err := session.Begin(); err != nil {
		return err
	}
	if _, err := session.Where("1 = 1").Delete(new(User)); err != nil {
		session.Rollback()
		return err
	}
	if len(users) > 0 {
		rows := make([]*User, len(users))
		for i := range users {
			u := users[i]
			rows[i] = &u
		}
		n, err := session.Insert(rows)
		if err != nil {
			session.Rollback()
			return err
		}
		if int(n) != len(rows) {
			session.Rollback()
			return ErrInsertFail
		}
	}
	return session.Commit()
}

// DbMessageStore archive store backed by t_chat_msg
type DbMessageStore struct {
	engine *xorm.Engine
}

// NewDbMessageStore new a DbMessageStore
func NewDbMessageStore(engine *xorm.Engine) *DbMessageStore {
	if engine == nil {
		return &DbMessageStore{}
	}
	err := engine.Sync2(new(ChatMsg))
	if err != nil {
		log.Println(err)
	}
	return &DbMessageStore{
		engine: engine,
	}
}

// SaveChatMsg save messages in one insert
func (s *DbMessageStore) SaveChatMsg(msgs []*ChatMsg) error {
	if s.engine == nil || len(msgs) == 0 {
		return nil
	}
	_, err := s.engine.Insert(msgs)
	if err != nil {
		return err
	}
	return nil
}
