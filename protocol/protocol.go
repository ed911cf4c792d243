// Package protocol defines the JSON records exchanged between game clients and
// the relay server. One record travels per UDP datagram.
package protocol

import (
	"encoding/json"
)

// MessageType tags every record. The wire value is the bare type name.
type MessageType string

// Message types understood by the relay.
const (
	Connect        MessageType = "Connect"
	ConnectSuccess MessageType = "ConnectSuccessfull" // spelling is part of the deployed wire format
	ConnectFailed  MessageType = "ConnectFailed"
	Disconnect     MessageType = "Disconnect"
	Action         MessageType = "Action"
	UpdateLife     MessageType = "UpdateLife"
	PlayerDeath    MessageType = "PlayerDeath"
)

// Known reports whether t is one of the defined message types.
func (t MessageType) Known() bool {
	switch t {
	case Connect, ConnectSuccess, ConnectFailed, Disconnect, Action, UpdateLife, PlayerDeath:
		return true
	}
	return false
}

// ClientRecord is the client to server record.
type ClientRecord struct {
	Type       MessageType     `json:"message_type"`
	PlayerName string          `json:"player_name"`
	Content    json.RawMessage `json:"content"`
	PlayerID   uint64          `json:"id_player"`
}

// ServerRecord is the server to client record.
type ServerRecord struct {
	Type       MessageType     `json:"message_type"`
	PlayerName string          `json:"player_name"`
	Content    json.RawMessage `json:"content"`
	PlayerID   uint64          `json:"id_player"`
	PlayerLife int64           `json:"player_life"`
	Level      int             `json:"level"`
	CanConnect bool            `json:"canconnect"`
}

// Text wraps s as a JSON string content value.
func Text(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
