package peer

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chat-relay/wire"
	"github.com/gorilla/websocket"
)

var (
	// ErrUnexpectedMessage a text or otherwise non binary frame arrived
	ErrUnexpectedMessage = errors.New("peer: expected a binary message")
)

// WSConn carries one packet body per binary websocket message
type WSConn struct {
	config *Config
	conn   *websocket.Conn

	wmu    sync.Mutex
	closed int32
	quit   chan struct{}
}

// NewWSConn wraps an upgraded websocket connection and starts the pinger
func NewWSConn(conn *websocket.Conn, config *Config) *WSConn {
	c := &WSConn{
		config: config.withDefaults(),
		conn:   conn,
		quit:   make(chan struct{}),
	}
	conn.SetReadLimit(int64(c.config.MaxFrameSize))
	if c.config.PingPeriod > 0 {
		go c.ping()
	}
	return c
}

// DialWS connects to a websocket relay, url like ws://host:port/ws
func DialWS(url string, config *Config) (*WSConn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return NewWSConn(conn, config), nil
}

// ReadPacket ReadPacket
func (c *WSConn) ReadPacket() (*wire.Packet, error) {
	messageType, message, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			log.Printf("peer: websocket %v: %v", c.RemoteAddr(), err)
		}
		return nil, err
	}
	if messageType != websocket.BinaryMessage {
		return nil, &DecodeError{Err: ErrUnexpectedMessage}
	}
	return decode(message)
}

// WritePacket WritePacket
func (c *WSConn) WritePacket(p *wire.Packet) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClosed
	}
	body, err := p.Bytes()
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
	return c.conn.WriteMessage(websocket.BinaryMessage, body)
}

func (c *WSConn) ping() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.wmu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.wmu.Unlock()
			if err != nil {
				return
			}
		case <-c.quit:
			return
		}
	}
}

// Close sends a close frame when possible, then closes the socket
func (c *WSConn) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	close(c.quit)

	c.wmu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.wmu.Unlock()

	return c.conn.Close()
}

// RemoteAddr RemoteAddr
func (c *WSConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
