package hub

import (
	"log"

	"github.com/chat-relay/wire"
)

// Archive receives a copy of every chat packet relayed to a room
type Archive interface {
	Append(rec []byte) error
}

// Broadcaster delivers packets to every member of a room
type Broadcaster struct {
	rooms   *RoomRegistry
	archive Archive
}

// NewBroadcaster archive may be nil
func NewBroadcaster(rooms *RoomRegistry, archive Archive) *Broadcaster {
	return &Broadcaster{rooms: rooms, archive: archive}
}

// Broadcast writes p to every member of room p.Options and returns the number
// of successful writes. Failed writes are logged and skipped.
func (b *Broadcaster) Broadcast(p *wire.Packet) (int, error) {
	room, members, ok := b.rooms.snapshot(p.Options)
	if !ok {
		return 0, ErrRoomNotFound
	}

	room.send.Lock()
	defer room.send.Unlock()

	sent := 0
	for _, m := range members {
		if err := m.Conn.WritePacket(p); err != nil {
			log.Printf("broadcast: room %d to %s: %v", room.ID, m.User.Username, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// Chat relays a user message and archives it
func (b *Broadcaster) Chat(p *wire.Packet) {
	n, err := b.Broadcast(p)
	if err != nil {
		log.Printf("broadcast: message from %s to room %d dropped: %v", p.Username, p.Options, err)
		return
	}
	if n == 0 || b.archive == nil {
		return
	}
	rec, err := p.Bytes()
	if err != nil {
		log.Println("broadcast:", err)
		return
	}
	if err := b.archive.Append(rec); err != nil {
		log.Printf("broadcast: archive: %v", err)
	}
}

// Notice sends a server notice to room id
func (b *Broadcaster) Notice(serverName string, id int32, text string) {
	p := wire.NewPacket(id, serverName, serverName, text)
	if _, err := b.Broadcast(p); err != nil {
		log.Printf("broadcast: notice to room %d: %v", id, err)
	}
}
