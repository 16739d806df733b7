package hub

import (
	"errors"
	"sort"
	"sync"

	"github.com/chat-relay/peer"
	"github.com/chat-relay/wire"
)

// LobbyName name of the room every user starts in
const LobbyName = "Lobby"

var (
	// ErrRoomNotFound no room with that ID
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomExists a room with that name already exists
	ErrRoomExists = errors.New("room already exists")
	// ErrNotMember the user is not in the room it tried to move out of
	ErrNotMember = errors.New("not a member of the room")
)

// RoomInfo is a point in time view of a room
type RoomInfo struct {
	ID      int32  `json:"id"`
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// Room Room
type Room struct {
	ID   int32
	Name string

	// guarded by RoomRegistry.mu
	members map[string]Member

	// send serializes broadcasts to this room
	send sync.Mutex
}

func (room *Room) info() RoomInfo {
	return RoomInfo{ID: room.ID, Name: room.Name, Members: len(room.members)}
}

// RoomRegistry owns every room and its membership. Rooms are never removed.
type RoomRegistry struct {
	mu     sync.Mutex
	rooms  map[int32]*Room
	byName map[string]*Room
	nextID int32
}

// NewRoomRegistry returns a registry holding only the lobby
func NewRoomRegistry() *RoomRegistry {
	r := &RoomRegistry{
		rooms:  make(map[int32]*Room),
		byName: make(map[string]*Room),
		nextID: wire.LobbyID,
	}
	r.create(LobbyName)
	return r
}

// isMember must be called with mu held
func (room *Room) isMember(m Member) bool {
	cur, ok := room.members[m.User.Username]
	return ok && cur.Conn == m.Conn
}

// create must be called with mu held
func (r *RoomRegistry) create(name string) *Room {
	room := &Room{ID: r.nextID, Name: name, members: make(map[string]Member)}
	r.nextID++
	r.rooms[room.ID] = room
	r.byName[name] = room
	return room
}

// Create adds a room with the next ID
func (r *RoomRegistry) Create(name string) (RoomInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return RoomInfo{}, ErrRoomExists
	}
	return r.create(name).info(), nil
}

// FindByID FindByID
func (r *RoomRegistry) FindByID(id int32) (RoomInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return RoomInfo{}, false
	}
	return room.info(), true
}

// FindByName FindByName
func (r *RoomRegistry) FindByName(name string) (RoomInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.byName[name]
	if !ok {
		return RoomInfo{}, false
	}
	return room.info(), true
}

// Rooms every room ordered by ID
func (r *RoomRegistry) Rooms() []RoomInfo {
	r.mu.Lock()
	list := make([]RoomInfo, 0, len(r.rooms))
	for _, room := range r.rooms {
		list = append(list, room.info())
	}
	r.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// AddMember puts a copy of m in room id
func (r *RoomRegistry) AddMember(id int32, m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}
	room.members[m.User.Username] = m
	return nil
}

// RemoveMember RemoveMember
func (r *RoomRegistry) RemoveMember(id int32, username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return false
	}
	if _, ok := room.members[username]; !ok {
		return false
	}
	delete(room.members, username)
	return true
}

// RemoveConn drops username from every room where it is bound to conn
func (r *RoomRegistry) RemoveConn(username string, conn peer.Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, room := range r.rooms {
		if m, ok := room.members[username]; ok && m.Conn == conn {
			delete(room.members, username)
			n++
		}
	}
	return n
}

// Members usernames in room id, sorted
func (r *RoomRegistry) Members(id int32) ([]string, bool) {
	r.mu.Lock()
	room, ok := r.rooms[id]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	names := make([]string, 0, len(room.members))
	for name := range room.members {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names, true
}

// SetRealName updates every room copy of username
func (r *RoomRegistry) SetRealName(username, realname string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if m, ok := room.members[username]; ok {
			m.User.RealName = realname
			room.members[username] = m
		}
	}
}

// Join moves m from room from into the room called name, creating it when
// missing. The source room must exist and hold m.
func (r *RoomRegistry) Join(m Member, name string, from int32) (RoomInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.rooms[from]
	if !ok {
		return RoomInfo{}, ErrRoomNotFound
	}
	if !src.isMember(m) {
		return RoomInfo{}, ErrNotMember
	}
	dst, ok := r.byName[name]
	if !ok {
		dst = r.create(name)
	}
	delete(src.members, m.User.Username)
	dst.members[m.User.Username] = m
	return dst.info(), nil
}

// Leave moves m from room from back to the lobby. Leaving the lobby does
// nothing and reports false, as does leaving a room m is not in.
func (r *RoomRegistry) Leave(m Member, from int32) (RoomInfo, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lobby := r.rooms[wire.LobbyID]
	if from == wire.LobbyID {
		return lobby.info(), false, nil
	}
	src, ok := r.rooms[from]
	if !ok {
		return RoomInfo{}, false, ErrRoomNotFound
	}
	if !src.isMember(m) {
		return lobby.info(), false, ErrNotMember
	}
	delete(src.members, m.User.Username)
	lobby.members[m.User.Username] = m
	return lobby.info(), true, nil
}

// snapshot returns the room and a copy of its membership
func (r *RoomRegistry) snapshot(id int32) (*Room, []Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, nil, false
	}
	members := make([]Member, 0, len(room.members))
	for _, m := range room.members {
		members = append(members, m)
	}
	return room, members, true
}
