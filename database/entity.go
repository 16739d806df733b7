package database

import (
	"time"
)

// User is a registered identity. Every collection holding a User keeps its
// own copy.
type User struct {
	Username string `xorm:"pk varchar(64) 'username'" json:"username"`
	RealName string `xorm:"varchar(64)" json:"realname"`
	Password string `xorm:"varchar(128)" json:"password"`
}

// ChatMsg 房间消息存档
type ChatMsg struct {
	ID         uint64 `xorm:"pk autoincr 'id'"`
	RoomID     int32  `xorm:"index"`
	Sender     string `xorm:"varchar(64)"`
	SenderName string `xorm:"varchar(64)"`
	Text       string `xorm:"varchar(1024)"`
	SentAt     time.Time
	CreateAt   time.Time `xorm:"created"`
}
