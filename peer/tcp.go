package peer

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chat-relay/wire"
)

// TCPConn carries length framed packets over a byte stream
type TCPConn struct {
	config *Config
	conn   net.Conn
	reader *bufio.Reader

	wmu    sync.Mutex
	closed int32
}

// NewTCPConn wraps conn
func NewTCPConn(conn net.Conn, config *Config) *TCPConn {
	return &TCPConn{
		config: config.withDefaults(),
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// ReadPacket ReadPacket
func (c *TCPConn) ReadPacket() (*wire.Packet, error) {
	body, err := wire.ReadBytesMax(c.reader, c.config.MaxFrameSize)
	if err != nil {
		return nil, err
	}
	return decode(body)
}

// WritePacket WritePacket
func (c *TCPConn) WritePacket(p *wire.Packet) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClosed
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
	return wire.WritePacket(c.conn, p)
}

// Close Close
func (c *TCPConn) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	return c.conn.Close()
}

// RemoteAddr RemoteAddr
func (c *TCPConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Dial connects to a TCP relay
func Dial(addr string, config *Config) (*TCPConn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewTCPConn(conn, config), nil
}
