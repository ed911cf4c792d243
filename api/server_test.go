package api

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/beka-birhanu/vinom-relay-server/internal/testutil"
	"github.com/beka-birhanu/vinom-relay-server/service"
)

type fakeSource struct {
	snap service.Snapshot
	err  error
}

func (f *fakeSource) Snapshot(context.Context) (service.Snapshot, error) {
	return f.snap, f.err
}

func startAdmin(t *testing.T, src SessionSource) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	require.NoError(t, RegisterNewSessionServer(s, src, "10.0.0.5:8081", testutil.NopLogger(t)))
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	c, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestListPlayers(t *testing.T) {
	connectedAt := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	session := uuid.New()
	src := &fakeSource{snap: service.Snapshot{
		Level: 3,
		Players: []service.Player{
			{ID: 0, Name: "alice", Addr: &net.UDPAddr{IP: net.IPv4(10, 0, 0, 7), Port: 4000}, Life: 20, SessionID: session, ConnectedAt: connectedAt},
			{ID: 2, Name: "bob", Life: -1},
		},
	}}
	c := startAdmin(t, src)

	players, err := c.ListPlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 2)

	assert.Equal(t, PlayerInfo{
		ID:          0,
		Name:        "alice",
		Addr:        "10.0.0.7:4000",
		Life:        20,
		SessionID:   session.String(),
		ConnectedAt: connectedAt,
	}, players[0])
	assert.Equal(t, uint64(2), players[1].ID)
	assert.Equal(t, int64(-1), players[1].Life)
	assert.Empty(t, players[1].Addr)
}

func TestServerInfo(t *testing.T) {
	src := &fakeSource{snap: service.Snapshot{
		Level:         2,
		AdmissionOpen: true,
		Players:       []service.Player{{ID: 0}, {ID: 1}},
		Stats:         service.Stats{Processed: 10, DecodeErrors: 2, UnknownTypes: 1},
	}}
	c := startAdmin(t, src)

	info, err := c.ServerInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Info{
		Addr:         "10.0.0.5:8081",
		Level:        2,
		CanConnect:   true,
		Players:      2,
		Processed:    10,
		DecodeErrors: 2,
		UnknownTypes: 1,
	}, info)
}

func TestSnapshotErrorIsUnavailable(t *testing.T) {
	c := startAdmin(t, &fakeSource{err: errors.New("relay stopped")})

	_, err := c.ServerInfo(context.Background())
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))

	_, err = c.ListPlayers(context.Background())
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestRegisterValidates(t *testing.T) {
	s := grpc.NewServer()
	assert.Error(t, RegisterNewSessionServer(s, nil, "", testutil.NopLogger(t)))
	assert.Error(t, RegisterNewSessionServer(s, &fakeSource{}, "", nil))
}
