// Package client is a Go client for the relay server. It owns one UDP socket
// and a single outbound writer, so records leave in the order they were sent.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"

	"github.com/beka-birhanu/vinom-relay-server/protocol"
	"github.com/beka-birhanu/vinom-relay-server/socket"
)

const defaultInboxSize = 32

// Client errors.
var (
	ErrNameTaken    = errors.New("username already taken")
	ErrNotConnected = errors.New("not connected")
)

// Config configures a Client.
type Config struct {
	ServerAddr string // host:port of the relay
	Name       string
	Logger     general_i.Logger
	InboxSize  int // capacity of the Messages channel
}

// Session is the server's answer to Connect.
type Session struct {
	ID         uint64
	Life       int64
	Level      int
	CanConnect bool
}

// Client talks to one relay server.
type Client struct {
	name   string
	server *net.UDPAddr
	sock   *socket.Socket
	logger general_i.Logger

	inbox   chan protocol.ServerRecord
	replies chan protocol.ServerRecord

	mu      sync.RWMutex
	session *Session

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Dial opens a local socket aimed at the server and starts receiving.
func Dial(c Config) (*Client, error) {
	if c.Logger == nil {
		return nil, errors.New("client logger is required")
	}
	server, err := net.ResolveUDPAddr("udp", c.ServerAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving server address: %w", err)
	}
	sock, err := socket.New(socket.Config{ListenAddr: &net.UDPAddr{}, Logger: c.Logger})
	if err != nil {
		return nil, err
	}
	inboxSize := c.InboxSize
	if inboxSize <= 0 {
		inboxSize = defaultInboxSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	cl := &Client{
		name:    c.Name,
		server:  server,
		sock:    sock,
		logger:  c.Logger,
		inbox:   make(chan protocol.ServerRecord, inboxSize),
		replies: make(chan protocol.ServerRecord, 1),
		cancel:  cancel,
	}
	cl.wg.Add(1)
	go func() {
		defer cl.wg.Done()
		defer close(cl.inbox)
		sock.Serve(ctx, cl.receive)
	}()
	return cl, nil
}

// LocalAddr returns the client's bound address.
func (c *Client) LocalAddr() *net.UDPAddr {
	return c.sock.Addr()
}

// Messages delivers every server record other than connect replies.
// It is closed by Close.
func (c *Client) Messages() <-chan protocol.ServerRecord {
	return c.inbox
}

// Connect asks the server to admit the client's name and waits for the answer.
// UDP may lose either datagram, so callers should bound ctx.
func (c *Client) Connect(ctx context.Context) (Session, error) {
	if err := c.send(protocol.ClientRecord{Type: protocol.Connect, PlayerName: c.name}); err != nil {
		return Session{}, err
	}

	select {
	case rec := <-c.replies:
		if rec.Type == protocol.ConnectFailed {
			return Session{}, ErrNameTaken
		}
		s := Session{ID: rec.PlayerID, Life: rec.PlayerLife, Level: rec.Level, CanConnect: rec.CanConnect}
		c.mu.Lock()
		c.session = &s
		c.mu.Unlock()
		return s, nil
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
}

// Session returns the admitted session, if any.
func (c *Client) Session() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// SendAction relays content to every other player. content is marshalled
// to JSON unless it already is a json.RawMessage.
func (c *Client) SendAction(content any) error {
	s, ok := c.Session()
	if !ok {
		return ErrNotConnected
	}
	raw, err := toRaw(content)
	if err != nil {
		return err
	}
	return c.send(protocol.ClientRecord{Type: protocol.Action, PlayerName: c.name, Content: raw, PlayerID: s.ID})
}

// SendDamage reports one hit on targetID.
func (c *Client) SendDamage(targetID uint64) error {
	return c.send(protocol.ClientRecord{Type: protocol.UpdateLife, PlayerID: targetID})
}

// Disconnect tells the server the client is leaving.
func (c *Client) Disconnect() error {
	err := c.send(protocol.ClientRecord{Type: protocol.Disconnect, PlayerName: c.name})
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	return err
}

// Close stops the socket. It does not send Disconnect.
func (c *Client) Close() {
	c.cancel()
	c.sock.Stop()
	c.wg.Wait()
}

func (c *Client) send(rec protocol.ClientRecord) error {
	b, err := protocol.EncodeClient(rec)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", rec.Type, err)
	}
	return c.sock.Send(b, c.server)
}

func (c *Client) receive(ctx context.Context, b []byte, _ *net.UDPAddr) {
	rec, err := protocol.DecodeServer(b)
	if err != nil {
		c.logger.Warning(fmt.Sprintf("dropping server datagram: %v", err))
		return
	}

	if rec.Type == protocol.ConnectSuccess || rec.Type == protocol.ConnectFailed {
		select {
		case c.replies <- rec:
		default:
			c.logger.Warning(fmt.Sprintf("unexpected %s reply", rec.Type))
		}
		return
	}

	select {
	case c.inbox <- rec:
	case <-ctx.Done():
	}
}

func toRaw(content any) (json.RawMessage, error) {
	switch v := content.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	}
	b, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encoding content: %w", err)
	}
	return b, nil
}
