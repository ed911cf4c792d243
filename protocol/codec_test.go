package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClient(t *testing.T) {
	raw := []byte(`{"message_type":"Action","player_name":"alice","content":{"movement":[1.5,0,2],"rotation":[0,0,0,1]},"id_player":3}`)

	r, err := DecodeClient(raw)
	require.NoError(t, err)
	assert.Equal(t, Action, r.Type)
	assert.Equal(t, "alice", r.PlayerName)
	assert.Equal(t, uint64(3), r.PlayerID)
	assert.JSONEq(t, `{"movement":[1.5,0,2],"rotation":[0,0,0,1]}`, string(r.Content))
}

func TestDecodeClientUnknownTypeIsNotAnError(t *testing.T) {
	r, err := DecodeClient([]byte(`{"message_type":"BallMovement","player_name":"bob","content":null,"id_player":0}`))
	require.NoError(t, err)
	assert.False(t, r.Type.Known())
}

func TestDecodeClientMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "hello"},
		{"array", `[1,2,3]`},
		{"truncated", `{"message_type":"Connect","player_na`},
		{"missing type", `{"player_name":"x","content":null,"id_player":0}`},
		{"negative id", `{"message_type":"UpdateLife","player_name":"","content":null,"id_player":-1}`},
		{"fractional id", `{"message_type":"UpdateLife","player_name":"","content":null,"id_player":1.5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeClient([]byte(tt.raw))
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestEncodeServerFieldNames(t *testing.T) {
	b, err := EncodeServer(ServerRecord{
		Type:       ConnectSuccess,
		PlayerName: "alice",
		Content:    Text("Connected successfully"),
		PlayerID:   7,
		PlayerLife: 20,
		Level:      2,
		CanConnect: true,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"message_type":"ConnectSuccessfull",
		"player_name":"alice",
		"content":"Connected successfully",
		"id_player":7,
		"player_life":20,
		"level":2,
		"canconnect":true
	}`, string(b))
}

func TestEncodeClientNullContent(t *testing.T) {
	b, err := EncodeClient(ClientRecord{Type: Disconnect, PlayerName: "alice"})
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "null", string(m["content"]))
	assert.Equal(t, `"Disconnect"`, string(m["message_type"]))
}

func TestDecodeServerKeepsContentBytes(t *testing.T) {
	content := `{"delete_ball":true}`
	r, err := DecodeServer([]byte(`{"message_type":"Action","player_name":"a","content":` + content + `,"id_player":0,"player_life":20,"level":1,"canconnect":true}`))
	require.NoError(t, err)
	assert.Equal(t, content, string(r.Content))
	assert.Equal(t, int64(20), r.PlayerLife)
	assert.True(t, r.CanConnect)
}
