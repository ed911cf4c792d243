package api

import (
	"context"
	"fmt"
	"time"

	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// PlayerInfo is one row of ListPlayers.
type PlayerInfo struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Addr        string    `json:"addr"`
	Life        int64     `json:"life"`
	SessionID   string    `json:"session_id"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Info is the ServerInfo response.
type Info struct {
	Addr         string `json:"addr"`
	Level        int    `json:"level"`
	CanConnect   bool   `json:"canconnect"`
	Players      int    `json:"players"`
	Processed    uint64 `json:"processed"`
	DecodeErrors uint64 `json:"decode_errors"`
	UnknownTypes uint64 `json:"unknown_types"`
}

// Client calls the admin service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the admin service at target.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dialing admin service: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// ListPlayers returns the registered players sorted by id.
func (c *Client) ListPlayers(ctx context.Context) ([]PlayerInfo, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, listPlayersFullMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}

	list := out.GetFields()["players"].GetListValue().GetValues()
	players := make([]PlayerInfo, 0, len(list))
	for _, v := range list {
		f := v.GetStructValue().GetFields()
		connectedAt, _ := time.Parse(time.RFC3339, f["connected_at"].GetStringValue())
		players = append(players, PlayerInfo{
			ID:          uint64(f["id"].GetNumberValue()),
			Name:        f["name"].GetStringValue(),
			Addr:        f["addr"].GetStringValue(),
			Life:        int64(f["life"].GetNumberValue()),
			SessionID:   f["session_id"].GetStringValue(),
			ConnectedAt: connectedAt,
		})
	}
	return players, nil
}

// ServerInfo returns the relay level, admission flag and counters.
func (c *Client) ServerInfo(ctx context.Context) (Info, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, serverInfoFullMethod, &emptypb.Empty{}, out); err != nil {
		return Info{}, err
	}
	f := out.GetFields()
	return Info{
		Addr:         f["addr"].GetStringValue(),
		Level:        int(f["level"].GetNumberValue()),
		CanConnect:   f["canconnect"].GetBoolValue(),
		Players:      int(f["players"].GetNumberValue()),
		Processed:    uint64(f["processed"].GetNumberValue()),
		DecodeErrors: uint64(f["decode_errors"].GetNumberValue()),
		UnknownTypes: uint64(f["unknown_types"].GetNumberValue()),
	}, nil
}
