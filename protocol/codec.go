package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDecode is returned for datagrams that are not a valid record.
var ErrDecode = errors.New("malformed record")

var null = json.RawMessage("null")

// DecodeClient parses a client datagram.
func DecodeClient(b []byte) (ClientRecord, error) {
	var r ClientRecord
	if err := decode(b, &r, &r.Type); err != nil {
		return ClientRecord{}, err
	}
	return r, nil
}

// DecodeServer parses a server datagram.
func DecodeServer(b []byte) (ServerRecord, error) {
	var r ServerRecord
	if err := decode(b, &r, &r.Type); err != nil {
		return ServerRecord{}, err
	}
	return r, nil
}

func decode(b []byte, v any, t *MessageType) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return fmt.Errorf("%w: not a JSON object", ErrDecode)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if *t == "" {
		return fmt.Errorf("%w: missing message_type", ErrDecode)
	}
	return nil
}

// EncodeClient serializes a client record. Empty content is sent as null.
func EncodeClient(r ClientRecord) ([]byte, error) {
	if len(r.Content) == 0 {
		r.Content = null
	}
	return json.Marshal(r)
}

// EncodeServer serializes a server record. Empty content is sent as null.
func EncodeServer(r ServerRecord) ([]byte, error) {
	if len(r.Content) == 0 {
		r.Content = null
	}
	return json.Marshal(r)
}
