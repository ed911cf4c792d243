package service

import (
	"errors"
	"net"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Registry errors.
var (
	ErrNameTaken = errors.New("username already taken")
)

// Registry constants.
const (
	InitialLife  = 20 // Life of a freshly admitted player.
	AdmissionCap = 9  // Admission stays open while fewer players are registered.
)

// Player is one connected participant.
type Player struct {
	ID          uint64       // Sequential, never reused within a run.
	Name        string       // Unique among registered players.
	Addr        *net.UDPAddr // Last observed source address.
	Life        int64        // Only ever decremented.
	SessionID   uuid.UUID    // Correlates a connection in logs and admin views.
	ConnectedAt time.Time
}

// ConnectResult is the outcome of a successful TryConnect.
type ConnectResult struct {
	ID               uint64
	Life             int64
	AdmissionAllowed bool
	SessionID        uuid.UUID
}

// DamageResult is the outcome of ApplyDamage.
type DamageResult struct {
	Found bool  // Target is registered.
	Dead  bool  // Target was already at or below zero; nothing was changed.
	Life  int64 // Life after the call.
}

// Registry is the in-memory table of connected players.
// It is not safe for concurrent use; the Relay owns it exclusively.
type Registry struct {
	byName map[string]*Player
	nextID uint64
	now    func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Player),
		now:    time.Now,
	}
}

// TryConnect admits name from addr. Admission is evaluated on the size before
// the insert and is advisory: the player is registered either way.
func (r *Registry) TryConnect(name string, addr *net.UDPAddr) (ConnectResult, error) {
	if _, ok := r.byName[name]; ok {
		return ConnectResult{}, ErrNameTaken
	}

	allowed := len(r.byName) < AdmissionCap
	p := &Player{
		ID:          r.nextID,
		Name:        name,
		Addr:        addr,
		Life:        InitialLife,
		SessionID:   uuid.New(),
		ConnectedAt: r.now(),
	}
	r.byName[name] = p
	r.nextID++

	return ConnectResult{
		ID:               p.ID,
		Life:             p.Life,
		AdmissionAllowed: allowed,
		SessionID:        p.SessionID,
	}, nil
}

// Disconnect removes name. Unknown names are ignored.
func (r *Registry) Disconnect(name string) (Player, bool) {
	p, ok := r.byName[name]
	if !ok {
		return Player{}, false
	}
	delete(r.byName, name)
	return *p, true
}

// FindByName returns the player registered under name.
func (r *Registry) FindByName(name string) (*Player, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// FindByID returns the player holding id.
func (r *Registry) FindByID(id uint64) (*Player, bool) {
	for _, p := range r.byName {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// AllExcept returns every registered player but name, in no particular order.
func (r *Registry) AllExcept(name string) []*Player {
	out := make([]*Player, 0, len(r.byName))
	for n, p := range r.byName {
		if n != name {
			out = append(out, p)
		}
	}
	return out
}

// ApplyDamage takes one life from the player holding id, unless they are
// already at or below zero.
func (r *Registry) ApplyDamage(id uint64) DamageResult {
	p, ok := r.FindByID(id)
	if !ok {
		return DamageResult{}
	}
	if p.Life <= 0 {
		return DamageResult{Found: true, Dead: true, Life: p.Life}
	}
	p.Life--
	return DamageResult{Found: true, Life: p.Life}
}

// Len returns the number of registered players.
func (r *Registry) Len() int {
	return len(r.byName)
}

// NextID returns the id the next admitted player will get.
func (r *Registry) NextID() uint64 {
	return r.nextID
}

// Players returns copies of every player sorted by id.
func (r *Registry) Players() []Player {
	out := make([]Player, 0, len(r.byName))
	for _, p := range r.byName {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
