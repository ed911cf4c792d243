package i

import "time"

// Event kinds published by the relay.
const (
	EventPlayerConnected    = "player_connected"
	EventPlayerDisconnected = "player_disconnected"
	EventPlayerDamaged      = "player_damaged"
	EventPlayerDeath        = "player_death"
	EventConnectRejected    = "connect_rejected"
)

// Event is a notable change in the session registry.
type Event struct {
	Kind       string    `json:"kind"`
	PlayerID   uint64    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Life       int64     `json:"life"`
	SessionID  string    `json:"session_id,omitempty"`
	At         time.Time `json:"at"`
}

// EventPublisher receives relay events. Publish must not block.
type EventPublisher interface {
	Publish(Event)
}
