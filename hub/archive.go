package hub

import (
	"log"
	"time"

	"github.com/chat-relay/database"
	"github.com/chat-relay/journal"
	"github.com/chat-relay/wire"
)

// ArchiveDrain returns the journal drain func that stores chat packets
func ArchiveDrain(store database.MessageStore) journal.DrainFunc {
	return func(records [][]byte) error {
		return saveMessagesToDb(store, records)
	}
}

func saveMessagesToDb(messageStore database.MessageStore, records [][]byte) error {
	messages := make([]*database.ChatMsg, 0, len(records))
	for _, rec := range records {
		p, err := wire.ParsePacket(rec)
		if err != nil {
			log.Println("archive:", err)
			continue
		}
		if !p.IsRoomMessage() {
			continue
		}
		messages = append(messages, &database.ChatMsg{
			RoomID:     p.Options,
			Sender:     p.Username,
			SenderName: p.Realname,
			Text:       p.Buf,
			SentAt:     time.Unix(p.Timestamp, 0),
		})
	}
	if len(messages) == 0 {
		return nil
	}
	return messageStore.SaveChatMsg(messages)
}
