package hub

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/chat-relay/wire"
)

func parseRoomID(s string) (int32, bool) {
	id, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(id), true
}

// handleSetPass "/setpass <old> <new> <confirm>"
func (s *session) handleSetPass(p *wire.Packet) {
	args := wire.Args(p.Buf)
	if len(args) < 4 {
		s.serverErr("Password change failed, malformed request.")
		return
	}
	err := s.hub.identity.ChangePassword(s.username, args[1], args[2], args[3])
	switch err {
	case nil:
		log.Printf("session %s: %s changed password", s.id, s.username)
		s.reply(wire.PassSuc, "Password changed.")
	case ErrUserNotFound:
		s.serverErr("Password change failed, for some reason we couldn't find you.")
	case ErrPasswordMismatch:
		s.serverErr("Password change failed, password mismatch.")
	case ErrConfirmMismatch:
		s.serverErr("Password change failed, new passwords do not match.")
	default:
		log.Printf("session %s: setpass: %v", s.id, err)
		s.serverErr("Password change failed.")
	}
}

// handleSetName payload is the new real name
func (s *session) handleSetName(p *wire.Packet) {
	name := strings.TrimSpace(p.Buf)
	if name == "" {
		s.malformed(p)
		return
	}
	if len(name) > wire.NameSize {
		name = name[:wire.NameSize]
	}

	if err := s.hub.identity.SetRealName(s.username, name); err != nil {
		s.serverErr("Name change failed, for some reason we couldn't find you.")
		return
	}
	if !s.hub.active.SetRealName(s.username, name) {
		s.serverErr("Name change failed, for some reason we couldn't find you.")
		return
	}
	s.hub.rooms.SetRealName(s.username, name)

	s.send(wire.NewPacket(wire.NameSuc, s.username, name, name))
}

// handleInvite "<user> <room-id>"
func (s *session) handleInvite(p *wire.Packet) {
	args := wire.Args(p.Buf)
	if len(args) < 2 {
		s.malformed(p)
		s.serverErr("An invitation could not be sent to %s.", wire.Arg(args, 0))
		return
	}
	target := args[0]
	id, ok := parseRoomID(args[1])
	room, found := s.hub.rooms.FindByID(id)
	invitee, active := s.hub.active.Find(target)
	if !ok || !found || !active {
		s.serverErr("An invitation could not be sent to %s.", target)
		return
	}
	inviter, _ := s.member()

	invite := wire.NewPacket(wire.Invite, s.serverName(), s.serverName(),
		fmt.Sprintf("%s has invited you to join %s", inviter.User.RealName, room.Name))
	if err := invitee.Conn.WritePacket(invite); err != nil {
		log.Printf("session %s: invite to %s: %v", s.id, target, err)
	}
	s.reply(wire.InviteSuc, target)
}

// handleJoin "<room-name> <current-room-id>"
func (s *session) handleJoin(p *wire.Packet) {
	args := wire.Args(p.Buf)
	if len(args) < 2 {
		s.malformed(p)
		return
	}
	name := args[0]
	from, ok := parseRoomID(args[1])
	m, active := s.member()
	if !ok || !active {
		s.serverErr("Unable to join %s.", name)
		return
	}

	room, err := s.hub.rooms.Join(m, name, from)
	if err != nil {
		log.Printf("session %s: join %s from %d: %v", s.id, name, from, err)
		s.serverErr("Unable to join %s.", name)
		return
	}

	s.reply(wire.JoinSuc, fmt.Sprintf("%s %d", room.Name, room.ID))
	s.hub.broadcaster.Notice(s.serverName(), room.ID,
		fmt.Sprintf("%s has joined the room.", m.User.RealName))
}

// handleLeave "/leave <current-room-id>"
func (s *session) handleLeave(p *wire.Packet) {
	args := wire.Args(p.Buf)
	if len(args) < 2 {
		s.malformed(p)
		return
	}
	from, ok := parseRoomID(args[1])
	if !ok {
		s.malformed(p)
		return
	}
	if from == wire.LobbyID {
		return
	}
	m, active := s.member()
	if !active {
		return
	}

	lobby, moved, err := s.hub.rooms.Leave(m, from)
	if err != nil {
		log.Printf("session %s: leave %d: %v", s.id, from, err)
		return
	}
	if !moved {
		return
	}
	s.reply(wire.JoinSuc, fmt.Sprintf("%s %d", lobby.Name, lobby.ID))
	s.hub.broadcaster.Notice(s.serverName(), lobby.ID,
		fmt.Sprintf("%s has joined the lobby.", m.User.RealName))
}

func (s *session) handleGetAllUsers() {
	for _, name := range s.hub.active.Usernames() {
		s.reply(wire.GetAllUsers, name)
	}
}

// handleGetUsers "/who <room-id>"
func (s *session) handleGetUsers(p *wire.Packet) {
	args := wire.Args(p.Buf)
	if len(args) < 2 {
		s.malformed(p)
		return
	}
	id, ok := parseRoomID(args[1])
	if !ok {
		s.malformed(p)
		return
	}
	names, found := s.hub.rooms.Members(id)
	if !found {
		log.Printf("session %s: who: room %d not found", s.id, id)
		return
	}
	for _, name := range names {
		s.reply(wire.GetUsers, name)
	}
}

// handleGetUser "/who <user>"
func (s *session) handleGetUser(p *wire.Packet) {
	args := wire.Args(p.Buf)
	if len(args) < 2 {
		s.malformed(p)
		return
	}
	m, ok := s.hub.active.Find(args[1])
	if !ok {
		s.serverErr("%s not found.", args[1])
		return
	}
	s.reply(wire.GetUser, m.User.RealName)
}

func (s *session) handleGetRooms() {
	for _, room := range s.hub.rooms.Rooms() {
		s.reply(wire.GetRooms, room.Name)
	}
}

// handleExit cleans up first so the goodbye is the last packet the client sees
func (s *session) handleExit() {
	s.cleanup()
	s.reply(wire.Exit, "Goodbye!")
}
