package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpc "google.golang.org/grpc"

	"github.com/beka-birhanu/vinom-relay-server/api"
	"github.com/beka-birhanu/vinom-relay-server/client"
	"github.com/beka-birhanu/vinom-relay-server/internal/testutil"
	"github.com/beka-birhanu/vinom-relay-server/protocol"
	"github.com/beka-birhanu/vinom-relay-server/service"
	"github.com/beka-birhanu/vinom-relay-server/socket"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testServer struct {
	udpAddr   string
	adminAddr string
	relay     *service.Relay
}

func startServer(t *testing.T) testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := testutil.NopLogger(t)
	sock, err := socket.New(socket.Config{ListenAddr: &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)}, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(sock.Stop)

	relay, err := service.NewRelay(&service.Config{Sender: sock, Level: 2, Logger: logger})
	require.NoError(t, err)
	go relay.Run(ctx)
	go sock.Serve(ctx, relay.HandleDatagram)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	gs := grpc.NewServer()
	require.NoError(t, api.RegisterNewSessionServer(gs, relay, sock.Addr().String(), logger))
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	return testServer{udpAddr: sock.Addr().String(), adminAddr: lis.Addr().String(), relay: relay}
}

func peer(t *testing.T, addr, name string) *client.Client {
	t.Helper()
	c, err := client.Dial(client.Config{ServerAddr: addr, Name: name, Logger: testutil.NopLogger(t)})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.Connect(ctx)
	require.NoError(t, err)
	return c
}

func TestRunJoinRelaysStdinAndDisconnects(t *testing.T) {
	srv := startServer(t)
	other := peer(t, srv.udpAddr, "other")

	c, err := client.Dial(client.Config{ServerAddr: srv.udpAddr, Name: "cli", Logger: testutil.NopLogger(t)})
	require.NoError(t, err)
	defer c.Close()

	out := &syncBuffer{}
	in := strings.NewReader("{\"movement\":[1,2,3]}\nnot json\n\n")
	require.NoError(t, runJoin(context.Background(), c, in, out))

	select {
	case rec := <-other.Messages():
		assert.Equal(t, protocol.Action, rec.Type)
		assert.Equal(t, "cli", rec.PlayerName)
		assert.JSONEq(t, `{"movement":[1,2,3]}`, string(rec.Content))
	case <-time.After(2 * time.Second):
		t.Fatal("peer did not receive the action")
	}

	assert.Contains(t, out.String(), "connected as 1 with 20 life at level 2")
	assert.Contains(t, out.String(), "skipping invalid JSON: not json")

	require.Eventually(t, func() bool {
		snap, err := srv.relay.Snapshot(context.Background())
		return err == nil && len(snap.Players) == 1 && snap.Players[0].Name == "other"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunJoinNameTaken(t *testing.T) {
	srv := startServer(t)
	peer(t, srv.udpAddr, "dup")

	c, err := client.Dial(client.Config{ServerAddr: srv.udpAddr, Name: "dup", Logger: testutil.NopLogger(t)})
	require.NoError(t, err)
	defer c.Close()

	err = runJoin(context.Background(), c, strings.NewReader(""), &syncBuffer{})
	assert.ErrorIs(t, err, client.ErrNameTaken)
}

func TestInfoAndPlayersCommands(t *testing.T) {
	srv := startServer(t)
	peer(t, srv.udpAddr, "alice")

	out := &syncBuffer{}
	cmd := NewRootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"info", "--admin", srv.adminAddr, "-o", "json"})
	require.NoError(t, cmd.Execute())

	var info api.Info
	require.NoError(t, json.Unmarshal([]byte(out.String()), &info))
	assert.Equal(t, 2, info.Level)
	assert.Equal(t, 1, info.Players)
	assert.True(t, info.CanConnect)

	out = &syncBuffer{}
	cmd = NewRootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"players", "--admin", srv.adminAddr})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "alice")
}

func TestJoinRequiresName(t *testing.T) {
	t.Setenv("RELAY_NAME", "")
	cmd := NewRootCmd()
	cmd.SetOut(&syncBuffer{})
	cmd.SetErr(&syncBuffer{})
	cmd.SetArgs([]string{"join", "--server", "127.0.0.1:9"})
	assert.Error(t, cmd.Execute())
}
