// Command robot drives one or more scripted chat sessions against a relay:
// log in (or register), optionally join a room, send a line and print what
// comes back.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chat-relay/peer"
	"github.com/chat-relay/wire"
)

var errTimeout = errors.New("robot: timed out waiting for the server")

type options struct {
	addr     string
	wsURL    string
	user     string
	pass     string
	register bool
	room     string
	text     string
	wait     time.Duration
}

type robot struct {
	opts   *options
	user   string
	conn   peer.Conn
	in     chan *wire.Packet
	roomID int32
}

func dial(opts *options) (peer.Conn, error) {
	cfg := &peer.Config{PingPeriod: -1}
	if opts.wsURL != "" {
		return peer.DialWS(opts.wsURL, cfg)
	}
	return peer.Dial(opts.addr, cfg)
}

func newRobot(opts *options, user string) (*robot, error) {
	conn, err := dial(opts)
	if err != nil {
		return nil, err
	}
	r := &robot{opts: opts, user: user, conn: conn, in: make(chan *wire.Packet, 64), roomID: wire.LobbyID}
	go r.readLoop()
	return r, nil
}

func (r *robot) readLoop() {
	defer close(r.in)
	for {
		p, err := r.conn.ReadPacket()
		if err != nil {
			return
		}
		r.in <- p
	}
}

func (r *robot) send(options int32, buf string) error {
	return r.conn.WritePacket(wire.NewPacket(options, r.user, r.user, buf))
}

// await returns the first packet whose options is one of want, printing
// everything else it sees on the way
func (r *robot) await(want ...int32) (*wire.Packet, error) {
	timeout := time.After(r.opts.wait)
	for {
		select {
		case p, ok := <-r.in:
			if !ok {
				return nil, errors.New("robot: connection closed")
			}
			for _, w := range want {
				if p.Options == w {
					return p, nil
				}
			}
			r.print(p)
		case <-timeout:
			return nil, errTimeout
		}
	}
}

func (r *robot) print(p *wire.Packet) {
	log.Printf("[%s] %s", r.user, p)
}

func (r *robot) login() error {
	cmd, buf := wire.Login, fmt.Sprintf("/login %s %s", r.user, r.opts.pass)
	if r.opts.register {
		cmd, buf = wire.Register, fmt.Sprintf("/register %s %s %s", r.user, r.opts.pass, r.opts.pass)
	}
	if err := r.send(cmd, buf); err != nil {
		return err
	}
	p, err := r.await(wire.LogSuc, wire.ServErr)
	if err != nil {
		return err
	}
	if p.Options == wire.ServErr {
		return fmt.Errorf("robot: %s: %s", r.user, p.Buf)
	}
	log.Printf("[%s] logged in as %s", r.user, p.Realname)
	return nil
}

func (r *robot) join(room string) error {
	if err := r.send(wire.Join, fmt.Sprintf("%s %d", room, r.roomID)); err != nil {
		return err
	}
	p, err := r.await(wire.JoinSuc, wire.ServErr)
	if err != nil {
		return err
	}
	if p.Options == wire.ServErr {
		return fmt.Errorf("robot: %s", p.Buf)
	}
	fields := strings.Fields(p.Buf)
	if len(fields) != 2 {
		return fmt.Errorf("robot: bad join reply %q", p.Buf)
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return err
	}
	r.roomID = int32(id)
	return nil
}

// say sends text to the current room and waits for the echo
func (r *robot) say(text string) error {
	if err := r.send(r.roomID, text); err != nil {
		return err
	}
	for {
		p, err := r.await(r.roomID)
		if err != nil {
			return err
		}
		if p.Username == r.user && p.Buf == wire.Sanitize(text) {
			return nil
		}
		r.print(p)
	}
}

func (r *robot) exit() {
	if err := r.send(wire.Exit, "/exit"); err == nil {
		r.await(wire.Exit)
	}
	r.conn.Close()
}

func run(opts *options, user string) error {
	r, err := newRobot(opts, user)
	if err != nil {
		return err
	}
	defer r.exit()

	if err := r.login(); err != nil {
		return err
	}
	if opts.room != "" {
		if err := r.join(opts.room); err != nil {
			return err
		}
	}
	if opts.text != "" {
		return r.say(opts.text)
	}
	return nil
}

func main() {
	opts := &options{}
	flag.StringVar(&opts.addr, "addr", "localhost:7070", "relay tcp address")
	flag.StringVar(&opts.wsURL, "ws", "", "relay websocket url, e.g. ws://localhost:7071/ws")
	flag.StringVar(&opts.user, "user", "robot", "username, numbered when -n > 1")
	flag.StringVar(&opts.pass, "pass", "robot", "password")
	flag.BoolVar(&opts.register, "register", false, "register instead of login")
	flag.StringVar(&opts.room, "room", "", "room to join")
	flag.StringVar(&opts.text, "msg", "hello, im robot", "line to send")
	flag.DurationVar(&opts.wait, "wait", 5*time.Second, "reply timeout")
	num := flag.Int("n", 1, "number of concurrent robots")
	flag.Parse()

	// listen sys.exit
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, os.Interrupt)
	go func() {
		<-sc
		os.Exit(1)
	}()

	wg := sync.WaitGroup{}
	failed := 0
	var mu sync.Mutex
	t1 := time.Now()
	for i := 0; i < *num; i++ {
		user := opts.user
		if *num > 1 {
			user = fmt.Sprintf("%s%d", opts.user, i)
		}
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			if err := run(opts, user); err != nil {
				log.Println(err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(user)
	}
	wg.Wait()
	log.Printf("robots[%v] failed[%v], cost time: %v", *num, failed, time.Since(t1))
	if failed > 0 {
		os.Exit(1)
	}
}
