package wire

import (
	"bytes"
	"fmt"
	"io"
	"time"
	"unicode/utf8"
)

// Command codes carried in Packet.Options by clients
const (
	Register    = int32(1)
	Login       = int32(2)
	SetPass     = int32(3)
	SetName     = int32(4)
	Invite      = int32(5)
	Join        = int32(6)
	Leave       = int32(7)
	GetAllUsers = int32(8)
	GetUsers    = int32(9)
	GetUser     = int32(10)
	GetRooms    = int32(11)
	GetMOTD     = int32(12)
	Exit        = int32(13)
)

// Reply codes sent by the server
const (
	ServErr   = int32(100)
	LogSuc    = int32(101)
	PassSuc   = int32(102)
	NameSuc   = int32(103)
	JoinSuc   = int32(104)
	InviteSuc = int32(105)
	MOTD      = int32(106)
)

const (
	// Unset options value, usually an artifact of a half read packet
	Unset = int32(0)
	// MessageThreshold options at or above this value address a room by ID
	MessageThreshold = int32(1000)
	// LobbyID is the ID of the room every session starts in
	LobbyID = MessageThreshold
)

const (
	// NameSize capacity of Username and Realname in bytes
	NameSize = 64
	// BufferSize capacity of Buf in bytes
	BufferSize = 1024
	// MaxFrameSize largest body a peer may announce
	MaxFrameSize = 8 + 3*4 + 4 + 2*NameSize + BufferSize
)

var optionNames = map[int32]string{
	Register:    "REGISTER",
	Login:       "LOGIN",
	SetPass:     "SETPASS",
	SetName:     "SETNAME",
	Invite:      "INVITE",
	Join:        "JOIN",
	Leave:       "LEAVE",
	GetAllUsers: "GETALLUSERS",
	GetUsers:    "GETUSERS",
	GetUser:     "GETUSER",
	GetRooms:    "GETROOMS",
	GetMOTD:     "GETMOTD",
	Exit:        "EXIT",
	ServErr:     "SERV_ERR",
	LogSuc:      "LOGSUC",
	PassSuc:     "PASSSUC",
	NameSuc:     "NAMESUC",
	JoinSuc:     "JOINSUC",
	InviteSuc:   "INVITESUC",
	MOTD:        "MOTD",
}

// OptionName returns a printable name for an options value
func OptionName(options int32) string {
	if name, ok := optionNames[options]; ok {
		return name
	}
	if options >= MessageThreshold {
		return fmt.Sprintf("ROOM(%d)", options)
	}
	return fmt.Sprintf("UNKNOWN(%d)", options)
}

// Packet is the envelope exchanged in both directions
type Packet struct {
	Timestamp int64
	Username  string
	Realname  string
	Options   int32
	Buf       string
}

// NewPacket builds a packet stamped with the current time
func NewPacket(options int32, username, realname, buf string) *Packet {
	return &Packet{
		Timestamp: time.Now().Unix(),
		Username:  clip(username, NameSize),
		Realname:  clip(realname, NameSize),
		Options:   options,
		Buf:       clip(buf, BufferSize),
	}
}

// IsRoomMessage reports whether the packet addresses a room
func (p *Packet) IsRoomMessage() bool {
	return p.Options >= MessageThreshold
}

// String is used by debug logging
func (p *Packet) String() string {
	return fmt.Sprintf("[%s] user=%q name=%q ts=%d buf=%q",
		OptionName(p.Options), p.Username, p.Realname, p.Timestamp, p.Buf)
}

// Decode decodes a packet body from r
func (p *Packet) Decode(r io.Reader) error {
	var err error
	ts, err := ReadUint64(r)
	if err != nil {
		return err
	}
	p.Timestamp = int64(ts)
	if p.Username, err = readField(r, NameSize); err != nil {
		return err
	}
	if p.Realname, err = readField(r, NameSize); err != nil {
		return err
	}
	opt, err := ReadUint32(r)
	if err != nil {
		return err
	}
	p.Options = int32(opt)
	if p.Buf, err = readField(r, BufferSize); err != nil {
		return err
	}
	return nil
}

// Encode encodes the packet body to w. Fields are clipped to their capacity.
func (p *Packet) Encode(w io.Writer) error {
	var err error
	if err = WriteUint64(w, uint64(p.Timestamp)); err != nil {
		return err
	}
	if err = WriteString(w, clip(p.Username, NameSize)); err != nil {
		return err
	}
	if err = WriteString(w, clip(p.Realname, NameSize)); err != nil {
		return err
	}
	if err = WriteUint32(w, uint32(p.Options)); err != nil {
		return err
	}
	if err = WriteString(w, clip(p.Buf, BufferSize)); err != nil {
		return err
	}
	return nil
}

// Bytes returns the encoded body
func (p *Packet) Bytes() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := p.Encode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParsePacket decodes a single body, as carried by one websocket message
func ParsePacket(body []byte) (*Packet, error) {
	p := &Packet{}
	if err := p.Decode(bytes.NewReader(body)); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadPacket reads one length framed packet from a byte stream
func ReadPacket(r io.Reader) (*Packet, error) {
	body, err := ReadBytesMax(r, MaxFrameSize)
	if err != nil {
		return nil, err
	}
	return ParsePacket(body)
}

// WritePacket writes p as one length framed packet. The frame is assembled
// first so it reaches w in a single Write.
func WritePacket(w io.Writer, p *Packet) error {
	body, err := p.Bytes()
	if err != nil {
		return err
	}
	frame := &bytes.Buffer{}
	if err := WriteBytes(frame, body); err != nil {
		return err
	}
	_, err = w.Write(frame.Bytes())
	return err
}

// readField reads a string and clips it to capacity
func readField(r io.Reader, capacity int) (string, error) {
	buf, err := ReadBytesMax(r, MaxFrameSize)
	if err != nil {
		return "", err
	}
	return clip(string(buf), capacity), nil
}

// clip shortens s to at most n bytes without splitting a rune
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
