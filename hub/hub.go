package hub

import (
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chat-relay/config"
	"github.com/chat-relay/database"
	"github.com/chat-relay/peer"
	"github.com/gorilla/websocket"
)

var (
	// ErrHubClosed Serve was called after Close
	ErrHubClosed = errors.New("hub closed")
)

// Hub 是一个服务中心, it owns the registries shared by every session
type Hub struct {
	config     *config.Config
	peerConfig *peer.Config
	upgrader   *websocket.Upgrader

	identity    *IdentityStore
	active      *ActiveRegistry
	rooms       *RoomRegistry
	broadcaster *Broadcaster

	mu        sync.Mutex
	listeners map[net.Listener]struct{}
	sessions  map[*session]struct{}
	closed    bool
	wg        sync.WaitGroup
}

// NewHub loads the users from store. archive may be nil.
func NewHub(cfg *config.Config, store database.UserStore, archive Archive) (*Hub, error) {
	identity, err := NewIdentityStore(store, cfg.Store.HashPasswords)
	if err != nil {
		return nil, err
	}
	log.Printf("hub: %d registered users loaded", identity.Len())

	origin := cfg.Server.Origin
	upgrader := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			rOrigin := r.Header.Get("Origin")
			if origin == "" || origin == "*" || rOrigin == "" {
				return true
			}
			if strings.Contains(origin, rOrigin) {
				return true
			}
			log.Println("hub: refuse origin", rOrigin)
			return false
		},
	}

	rooms := NewRoomRegistry()
	return &Hub{
		config: cfg,
		peerConfig: &peer.Config{
			WriteWait:    cfg.Peer.WriteWait,
			PingPeriod:   cfg.Peer.PingPeriod,
			MaxFrameSize: cfg.Peer.MaxFrameSize,
		},
		upgrader:    upgrader,
		identity:    identity,
		active:      NewActiveRegistry(),
		rooms:       rooms,
		broadcaster: NewBroadcaster(rooms, archive),
		listeners:   make(map[net.Listener]struct{}),
		sessions:    make(map[*session]struct{}),
	}, nil
}

// Serve accepts TCP connections until l is closed or the hub shuts down.
// Accept errors are logged and the loop keeps going.
func (h *Hub) Serve(l net.Listener) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	h.listeners[l] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.listeners, l)
		h.mu.Unlock()
	}()

	log.Println("hub: listen on", l.Addr())
	for {
		conn, err := l.Accept()
		if err != nil {
			if h.isClosed() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Printf("hub: accept: %v", err)
			continue
		}
		go h.ServeConn(peer.NewTCPConn(conn, h.peerConfig))
	}
}

// ServeConn runs one session on conn and returns when it ends
func (h *Hub) ServeConn(conn peer.Conn) {
	s := newSession(h, conn)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.sessions[s] = struct{}{}
	h.wg.Add(1)
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.sessions, s)
		h.mu.Unlock()
		h.wg.Done()
	}()

	s.run()
}

func (h *Hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Identity Identity
func (h *Hub) Identity() *IdentityStore { return h.identity }

// Active Active
func (h *Hub) Active() *ActiveRegistry { return h.active }

// Rooms Rooms
func (h *Hub) Rooms() *RoomRegistry { return h.rooms }

// Close stops the listeners, closes every connection and waits up to timeout
// for the sessions to finish.
func (h *Hub) Close(timeout time.Duration) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for l := range h.listeners {
		l.Close()
	}
	for s := range h.sessions {
		s.conn.Close()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		log.Println("hub: sessions still running after", timeout)
	}
}
