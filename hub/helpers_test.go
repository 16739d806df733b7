package hub

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/chat-relay/config"
	"github.com/chat-relay/database"
	"github.com/chat-relay/peer"
	"github.com/chat-relay/wire"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 3 * time.Second

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.MOTD = "test motd"
	cfg.Peer.PingPeriod = -1
	return cfg
}

type recordArchive struct {
	mu      sync.Mutex
	records [][]byte
}

func (a *recordArchive) Append(rec []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return nil
}

func (a *recordArchive) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// startHub serves a hub on a loopback port
func startHub(t *testing.T, store database.UserStore, archive Archive) (*Hub, string) {
	if store == nil {
		store = database.NewMemUserStore()
	}
	h, err := NewHub(testConfig(), store, archive)
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go h.Serve(l)
	return h, l.Addr().String()
}

type testClient struct {
	t    *testing.T
	conn peer.Conn
	in   chan *wire.Packet
}

func newTestClient(t *testing.T, conn peer.Conn) *testClient {
	c := &testClient{t: t, conn: conn, in: make(chan *wire.Packet, 256)}
	go func() {
		defer close(c.in)
		for {
			p, err := conn.ReadPacket()
			if err != nil {
				return
			}
			c.in <- p
		}
	}()
	return c
}

func dial(t *testing.T, addr string) *testClient {
	conn, err := peer.Dial(addr, &peer.Config{PingPeriod: -1})
	require.NoError(t, err)
	return newTestClient(t, conn)
}

func (c *testClient) send(options int32, buf string) {
	require.NoError(c.t, c.conn.WritePacket(wire.NewPacket(options, "", "", buf)))
}

// expect returns the next packet carrying options, skipping others
func (c *testClient) expect(options int32) *wire.Packet {
	timeout := time.After(waitTimeout)
	for {
		select {
		case p, ok := <-c.in:
			require.True(c.t, ok, "connection closed while waiting for %s", wire.OptionName(options))
			if p.Options == options {
				return p
			}
		case <-timeout:
			c.t.Fatalf("timed out waiting for %s", wire.OptionName(options))
			return nil
		}
	}
}

// expectText waits for a packet with options and buf
func (c *testClient) expectText(options int32, buf string) *wire.Packet {
	timeout := time.After(waitTimeout)
	for {
		select {
		case p, ok := <-c.in:
			require.True(c.t, ok, "connection closed while waiting for %q", buf)
			if p.Options == options && p.Buf == buf {
				return p
			}
		case <-timeout:
			c.t.Fatalf("timed out waiting for %s %q", wire.OptionName(options), buf)
			return nil
		}
	}
}

// none fails if a packet with options arrives within d
func (c *testClient) none(options int32, d time.Duration) {
	timeout := time.After(d)
	for {
		select {
		case p, ok := <-c.in:
			if !ok {
				return
			}
			if p.Options == options {
				c.t.Fatalf("unexpected packet %v", p)
			}
		case <-timeout:
			return
		}
	}
}

// collect gathers the Buf of packets with options until d passes quietly
func (c *testClient) collect(options int32, d time.Duration) []string {
	var bufs []string
	for {
		select {
		case p, ok := <-c.in:
			if !ok {
				return bufs
			}
			if p.Options == options {
				bufs = append(bufs, p.Buf)
			}
		case <-time.After(d):
			return bufs
		}
	}
}

// closed waits for the server to drop the connection
func (c *testClient) closed() {
	timeout := time.After(waitTimeout)
	for {
		select {
		case _, ok := <-c.in:
			if !ok {
				return
			}
		case <-timeout:
			c.t.Fatal("connection still open")
		}
	}
}

func (c *testClient) close() {
	c.conn.Close()
}

// login logs in and consumes the MOTD that ends the login sequence
func (c *testClient) login(user, pass string) *wire.Packet {
	c.send(wire.Login, "/login "+user+" "+pass)
	p := c.expect(wire.LogSuc)
	c.expect(wire.MOTD)
	return p
}

func (c *testClient) register(user, pass string) *wire.Packet {
	c.send(wire.Register, "/register "+user+" "+pass+" "+pass)
	p := c.expect(wire.LogSuc)
	c.expect(wire.MOTD)
	return p
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func users(names ...string) []database.User {
	list := make([]database.User, 0, len(names))
	for _, n := range names {
		list = append(list, database.User{Username: n, RealName: n, Password: "pw"})
	}
	return list
}
