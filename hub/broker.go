package hub

import (
	"fmt"
	"log"

	"github.com/chat-relay/database"
	"github.com/chat-relay/wire"
)

// handleRegister "/register <user> <pass> <confirm>", logs in on success
func (s *session) handleRegister(p *wire.Packet) {
	args := wire.Args(p.Buf)
	if len(args) < 4 {
		s.malformed(p)
		return
	}
	username, pass, confirm := args[1], args[2], args[3]

	if username == s.serverName() || s.hub.identity.Exists(username) {
		s.serverErr("Username unavailable.")
		return
	}
	if pass != confirm {
		s.serverErr("Passwords do not match.")
		return
	}
	user := database.User{Username: username, RealName: username, Password: pass}
	if err := s.hub.identity.Insert(user); err != nil {
		if err != ErrUserExists {
			log.Printf("session %s: register %s: %v", s.id, username, err)
		}
		s.serverErr("Username unavailable.")
		return
	}
	log.Printf("session %s: %s registered", s.id, username)

	s.login(username, pass)
}

// handleLogin "/login <user> <pass>"
func (s *session) handleLogin(p *wire.Packet) {
	args := wire.Args(p.Buf)
	if len(args) < 3 {
		s.malformed(p)
		return
	}
	s.login(args[1], args[2])
}

func (s *session) login(username, password string) {
	found, ok := s.hub.identity.Verify(username, password)
	if !found {
		s.serverErr("Username not found.")
		return
	}
	if !ok {
		s.serverErr("Incorrect password.")
		return
	}
	user, found := s.hub.identity.Find(username)
	if !found {
		s.serverErr("Username not found.")
		return
	}

	m := newMember(user, s.conn)
	if !s.hub.active.Add(m) {
		log.Printf("session %s: %s log in failed: already logged in", s.id, username)
		s.serverErr("%s already logged in.", username)
		return
	}
	if err := s.hub.rooms.AddMember(wire.LobbyID, m); err != nil {
		log.Printf("session %s: lobby: %v", s.id, err)
	}
	s.authenticated = true
	s.username = username
	log.Printf("session %s: %s logged in", s.id, username)

	s.send(wire.NewPacket(wire.LogSuc, username, user.RealName, ""))
	s.hub.broadcaster.Notice(s.serverName(), wire.LobbyID,
		fmt.Sprintf("%s has joined the lobby.", user.RealName))
	s.sendMOTD()
}
