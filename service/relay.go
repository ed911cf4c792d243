package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/beka-birhanu/vinom-relay-server/protocol"
	"github.com/beka-birhanu/vinom-relay-server/service/i"
)

const (
	defaultQueueSize = 32

	connectedText = "Connected successfully"
	nameTakenText = "Username already taken. Please choose another one."
)

// Inbound is a decoded record together with its source address.
type Inbound struct {
	Record protocol.ClientRecord
	Addr   *net.UDPAddr
}

// Stats counts what the relay has seen since start.
type Stats struct {
	Processed    uint64
	DecodeErrors uint64
	UnknownTypes uint64
}

// Snapshot is a consistent view of the relay state.
type Snapshot struct {
	Level         int
	AdmissionOpen bool
	Players       []Player
	Stats         Stats
}

// Config holds the Relay dependencies.
type Config struct {
	Sender    i.Sender
	Level     int
	QueueSize int
	Logger    general_i.Logger
	Events    i.EventPublisher // optional
}

// Relay admits players and relays their records. Run is the only goroutine
// that touches the registry; everything else goes through channels.
type Relay struct {
	sender   i.Sender
	level    int
	logger   general_i.Logger
	events   i.EventPublisher
	registry *Registry

	inbox     chan Inbound
	snapshots chan chan Snapshot

	admissionOpen bool
	processed     uint64
	unknownTypes  uint64
	decodeErrors  atomic.Uint64
}

// NewRelay creates a Relay. Call Run to start processing.
func NewRelay(c *Config) (*Relay, error) {
	if c.Sender == nil {
		return nil, errors.New("relay sender is required")
	}
	if c.Logger == nil {
		return nil, errors.New("relay logger is required")
	}
	queueSize := c.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &Relay{
		sender:        c.Sender,
		level:         c.Level,
		logger:        c.Logger,
		events:        c.Events,
		registry:      NewRegistry(),
		inbox:         make(chan Inbound, queueSize),
		snapshots:     make(chan chan Snapshot),
		admissionOpen: true,
	}, nil
}

// HandleDatagram decodes b and queues it. Malformed datagrams are logged and
// dropped. It blocks while the queue is full.
func (r *Relay) HandleDatagram(ctx context.Context, b []byte, addr *net.UDPAddr) {
	rec, err := protocol.DecodeClient(b)
	if err != nil {
		r.decodeErrors.Add(1)
		r.logger.Warning(fmt.Sprintf("dropping datagram from %s: %v", addr, err))
		return
	}
	_ = r.Enqueue(ctx, Inbound{Record: rec, Addr: addr})
}

// Enqueue queues in for processing, waiting for room unless ctx is done.
func (r *Relay) Enqueue(ctx context.Context, in Inbound) error {
	select {
	case r.inbox <- in:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes queued records in arrival order until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info(fmt.Sprintf("relay started at level %d", r.level))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("relay stopped")
			return
		case in := <-r.inbox:
			r.handle(in)
		case reply := <-r.snapshots:
			reply <- r.snapshot()
		}
	}
}

// Snapshot returns the current state as seen by the Run loop.
func (r *Relay) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case r.snapshots <- reply:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (r *Relay) snapshot() Snapshot {
	return Snapshot{
		Level:         r.level,
		AdmissionOpen: r.admissionOpen,
		Players:       r.registry.Players(),
		Stats: Stats{
			Processed:    r.processed,
			DecodeErrors: r.decodeErrors.Load(),
			UnknownTypes: r.unknownTypes,
		},
	}
}

// handle applies one record.
func (r *Relay) handle(in Inbound) {
	r.processed++
	switch in.Record.Type {
	case protocol.Connect:
		r.handleConnect(in)
	case protocol.Disconnect:
		r.handleDisconnect(in)
	case protocol.Action:
		r.handleAction(in)
	case protocol.UpdateLife:
		r.handleUpdateLife(in)
	default:
		r.unknownTypes++
		r.logger.Warning(fmt.Sprintf("ignoring %q record from %s", in.Record.Type, in.Addr))
	}
}

func (r *Relay) handleConnect(in Inbound) {
	name := in.Record.PlayerName
	res, err := r.registry.TryConnect(name, in.Addr)
	if errors.Is(err, ErrNameTaken) {
		r.logger.Warning(fmt.Sprintf("rejected connect from %s: name %q taken", in.Addr, name))
		r.send(protocol.ServerRecord{
			Type:       protocol.ConnectFailed,
			PlayerName: name,
			Content:    protocol.Text(nameTakenText),
			PlayerID:   r.registry.NextID(),
			Level:      r.level,
		}, in.Addr)
		r.publish(i.Event{Kind: i.EventConnectRejected, PlayerName: name})
		return
	}

	r.admissionOpen = res.AdmissionAllowed
	r.logger.Info(fmt.Sprintf("player %q connected from %s as %d (session %s)", name, in.Addr, res.ID, res.SessionID))
	r.send(protocol.ServerRecord{
		Type:       protocol.ConnectSuccess,
		PlayerName: name,
		Content:    protocol.Text(connectedText),
		PlayerID:   res.ID,
		PlayerLife: res.Life,
		Level:      r.level,
		CanConnect: res.AdmissionAllowed,
	}, in.Addr)
	r.publish(i.Event{
		Kind:       i.EventPlayerConnected,
		PlayerID:   res.ID,
		PlayerName: name,
		Life:       res.Life,
		SessionID:  res.SessionID.String(),
	})
}

func (r *Relay) handleDisconnect(in Inbound) {
	p, ok := r.registry.Disconnect(in.Record.PlayerName)
	if !ok {
		return
	}
	r.logger.Info(fmt.Sprintf("player %q disconnected", p.Name))
	r.publish(i.Event{
		Kind:       i.EventPlayerDisconnected,
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Life:       p.Life,
		SessionID:  p.SessionID.String(),
	})
}

// handleAction fans the record out to every other registered player.
func (r *Relay) handleAction(in Inbound) {
	var life int64
	if sender, ok := r.registry.FindByName(in.Record.PlayerName); ok {
		sender.Addr = in.Addr
		life = sender.Life
	}

	recipients := r.registry.AllExcept(in.Record.PlayerName)
	if len(recipients) == 0 {
		return
	}
	b, err := protocol.EncodeServer(protocol.ServerRecord{
		Type:       protocol.Action,
		PlayerName: in.Record.PlayerName,
		Content:    in.Record.Content,
		PlayerID:   in.Record.PlayerID,
		PlayerLife: life,
		Level:      r.level,
		CanConnect: r.admissionOpen,
	})
	if err != nil {
		r.logger.Error(fmt.Sprintf("encoding action from %q: %v", in.Record.PlayerName, err))
		return
	}
	for _, p := range recipients {
		if err := r.sender.Send(b, p.Addr); err != nil {
			r.logger.Warning(fmt.Sprintf("relaying action to %q: %v", p.Name, err))
		}
	}
}

// handleUpdateLife takes one life from the target. A target already at zero
// is told it is dead instead.
func (r *Relay) handleUpdateLife(in Inbound) {
	target := in.Record.PlayerID
	res := r.registry.ApplyDamage(target)
	if !res.Found {
		return
	}
	p, _ := r.registry.FindByID(target)
	if !res.Dead {
		r.publish(i.Event{Kind: i.EventPlayerDamaged, PlayerID: p.ID, PlayerName: p.Name, Life: res.Life})
		return
	}

	r.logger.Info(fmt.Sprintf("player %q (%d) is dead", p.Name, p.ID))
	r.send(protocol.ServerRecord{
		Type:       protocol.PlayerDeath,
		PlayerName: in.Record.PlayerName,
		Content:    in.Record.Content,
		PlayerID:   target,
		PlayerLife: res.Life,
		Level:      r.level,
		CanConnect: r.admissionOpen,
	}, p.Addr)
	r.publish(i.Event{Kind: i.EventPlayerDeath, PlayerID: p.ID, PlayerName: p.Name, Life: res.Life})
}

func (r *Relay) send(rec protocol.ServerRecord, addr *net.UDPAddr) {
	b, err := protocol.EncodeServer(rec)
	if err != nil {
		r.logger.Error(fmt.Sprintf("encoding %s record: %v", rec.Type, err))
		return
	}
	if err := r.sender.Send(b, addr); err != nil {
		r.logger.Warning(fmt.Sprintf("sending %s to %s: %v", rec.Type, addr, err))
	}
}

func (r *Relay) publish(e i.Event) {
	if r.events == nil {
		return
	}
	e.At = time.Now()
	r.events.Publish(e)
}
