package hub

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/chat-relay/peer"
	"github.com/chat-relay/wire"
	"github.com/google/uuid"
)

// session is the per connection state. Only the session goroutine touches
// its fields.
type session struct {
	id   string
	hub  *Hub
	conn peer.Conn

	authenticated bool
	username      string
	cleaned       bool
}

func newSession(h *Hub, conn peer.Conn) *session {
	return &session{
		id:   uuid.New().String(),
		hub:  h,
		conn: conn,
	}
}

func (s *session) run() {
	log.Printf("session %s: %v connected", s.id, s.conn.RemoteAddr())
	defer func() {
		s.cleanup()
		s.conn.Close()
		log.Printf("session %s: %v closed", s.id, s.conn.RemoteAddr())
	}()

	for {
		p, err := s.conn.ReadPacket()
		if err != nil {
			var derr *peer.DecodeError
			if errors.As(err, &derr) {
				log.Printf("session %s: dropped: %v", s.id, err)
				continue
			}
			if err != io.EOF {
				log.Printf("session %s: read: %v", s.id, err)
			}
			return
		}
		p.Buf = wire.Sanitize(p.Buf)
		if !s.dispatch(p) {
			return
		}
	}
}

// dispatch handles one packet and reports whether the session goes on
func (s *session) dispatch(p *wire.Packet) bool {
	if !s.authenticated {
		switch p.Options {
		case wire.Register:
			s.handleRegister(p)
		case wire.Login:
			s.handleLogin(p)
		case wire.Exit:
			return false
		default:
			s.serverErr("Not logged in.")
		}
		return true
	}

	if p.IsRoomMessage() {
		s.hub.broadcaster.Chat(p)
		return true
	}

	switch p.Options {
	case wire.SetPass:
		s.handleSetPass(p)
	case wire.SetName:
		s.handleSetName(p)
	case wire.Invite:
		s.handleInvite(p)
	case wire.Join:
		s.handleJoin(p)
	case wire.Leave:
		s.handleLeave(p)
	case wire.GetAllUsers:
		s.handleGetAllUsers()
	case wire.GetUsers:
		s.handleGetUsers(p)
	case wire.GetUser:
		s.handleGetUser(p)
	case wire.GetRooms:
		s.handleGetRooms()
	case wire.GetMOTD:
		s.sendMOTD()
	case wire.Exit:
		s.handleExit()
		return false
	case wire.Unset:
		log.Printf("session %s: %s sent an empty packet, client probably went away", s.id, s.username)
	default:
		log.Printf("session %s: unexpected options %s from %s", s.id, wire.OptionName(p.Options), s.username)
	}
	return true
}

// member returns the active entry of the session user
func (s *session) member() (Member, bool) {
	return s.hub.active.Find(s.username)
}

func (s *session) serverName() string {
	return s.hub.config.Server.Name
}

func (s *session) send(p *wire.Packet) {
	if err := s.conn.WritePacket(p); err != nil {
		log.Printf("session %s: write %s: %v", s.id, wire.OptionName(p.Options), err)
	}
}

// reply sends a packet signed by the server
func (s *session) reply(options int32, buf string) {
	name := s.serverName()
	s.send(wire.NewPacket(options, name, name, buf))
}

func (s *session) serverErr(format string, args ...interface{}) {
	s.reply(wire.ServErr, fmt.Sprintf(format, args...))
}

func (s *session) malformed(p *wire.Packet) {
	log.Printf("session %s: malformed %s packet, ignoring", s.id, wire.OptionName(p.Options))
}

func (s *session) sendMOTD() {
	s.reply(wire.MOTD, s.hub.config.Server.MOTD)
}

// cleanup removes the user from the active registry and every room, then
// tells the lobby. Runs once per session.
func (s *session) cleanup() {
	if !s.authenticated || s.cleaned {
		return
	}
	s.cleaned = true

	realname := s.username
	if m, ok := s.member(); ok && m.Conn == s.conn {
		realname = m.User.RealName
	}
	s.hub.active.Remove(s.username, s.conn)
	s.hub.rooms.RemoveConn(s.username, s.conn)
	s.hub.broadcaster.Notice(s.serverName(), wire.LobbyID, fmt.Sprintf("%s has disconnected.", realname))
	log.Printf("session %s: %s logged out", s.id, s.username)
}
