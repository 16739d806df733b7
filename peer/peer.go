package peer

import (
	"errors"
	"time"

	"github.com/chat-relay/wire"
)

const (
	// Time allowed to write a packet to the peer.
	defaultWriteWait = 10 * time.Second

	// Send websocket pings with this period. Zero disables them.
	defaultPingPeriod = 50 * time.Second

	// Maximum frame size allowed from peer.
	defaultMaxFrameSize = wire.MaxFrameSize
)

var (
	// ErrClosed the connection was closed locally
	ErrClosed = errors.New("peer: connection closed")
)

// DecodeError a complete frame arrived but its body is not a packet. The
// connection is still in sync and can be read again.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "peer: bad packet: " + e.Err.Error()
}

// Unwrap Unwrap
func (e *DecodeError) Unwrap() error { return e.Err }

func decode(body []byte) (*wire.Packet, error) {
	p, err := wire.ParsePacket(body)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return p, nil
}

// Config 节点配置
type Config struct {
	// Time allowed to write a packet to the peer.
	WriteWait time.Duration
	// Send websocket pings with this period.
	PingPeriod time.Duration
	// Maximum frame size allowed from peer.
	MaxFrameSize int
}

// withDefaults fills zero fields
func (c *Config) withDefaults() *Config {
	cfg := Config{}
	if c != nil {
		cfg = *c
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaultWriteWait
	}
	if cfg.PingPeriod < 0 {
		cfg.PingPeriod = 0
	} else if cfg.PingPeriod == 0 {
		cfg.PingPeriod = defaultPingPeriod
	}
	if cfg.MaxFrameSize <= 0 || cfg.MaxFrameSize > wire.MaxFrameSize {
		cfg.MaxFrameSize = defaultMaxFrameSize
	}
	return &cfg
}

// Conn is one client connection as seen by a session. Reads come from a single
// goroutine; WritePacket and Close are safe for concurrent use.
type Conn interface {
	// ReadPacket blocks until a packet arrives or the connection fails
	ReadPacket() (*wire.Packet, error)
	// WritePacket writes one packet, bounded by the write deadline
	WritePacket(p *wire.Packet) error
	// Close closes the connection. Only the first call has an effect.
	Close() error
	// RemoteAddr address of the remote end
	RemoteAddr() string
}
