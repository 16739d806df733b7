package hub

import (
	"sort"
	"sync"

	"github.com/chat-relay/database"
	"github.com/chat-relay/peer"
)

// Member is a user copy bound to a live connection. Active and room
// registries each keep their own Member values.
type Member struct {
	User database.User
	Conn peer.Conn
}

func newMember(u database.User, conn peer.Conn) Member {
	// copies never carry the password
	u.Password = ""
	return Member{User: u, Conn: conn}
}

// ActiveRegistry 在线用户, at most one entry per username
type ActiveRegistry struct {
	mu      sync.Mutex
	members map[string]Member
}

// NewActiveRegistry NewActiveRegistry
func NewActiveRegistry() *ActiveRegistry {
	return &ActiveRegistry{members: make(map[string]Member)}
}

// Add inserts m unless its username is already active
func (r *ActiveRegistry) Add(m Member) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[m.User.Username]; ok {
		return false
	}
	r.members[m.User.Username] = m
	return true
}

// Remove drops username only while it is bound to conn
func (r *ActiveRegistry) Remove(username string, conn peer.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[username]
	if !ok || m.Conn != conn {
		return false
	}
	delete(r.members, username)
	return true
}

// Find Find
func (r *ActiveRegistry) Find(username string) (Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[username]
	return m, ok
}

// SetRealName SetRealName
func (r *ActiveRegistry) SetRealName(username, realname string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[username]
	if !ok {
		return false
	}
	m.User.RealName = realname
	r.members[username] = m
	return true
}

// Usernames sorted snapshot
func (r *ActiveRegistry) Usernames() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.members))
	for name := range r.members {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names
}

// Len Len
func (r *ActiveRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}
