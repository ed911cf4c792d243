package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/beka-birhanu/vinom-relay-server/service"
)

// SessionSource provides relay snapshots.
type SessionSource interface {
	Snapshot(ctx context.Context) (service.Snapshot, error)
}

type Server struct {
	source SessionSource
	addr   string
	logger general_i.Logger
}

// RegisterNewSessionServer registers the admin service backed by src.
// addr is the UDP address advertised to operators.
func RegisterNewSessionServer(gsr grpc.ServiceRegistrar, src SessionSource, addr string, logger general_i.Logger) error {
	if src == nil {
		return errors.New("session source is required")
	}
	if logger == nil {
		return errors.New("admin logger is required")
	}
	RegisterSessionServer(gsr, &Server{source: src, addr: addr, logger: logger})
	return nil
}

func (s *Server) ListPlayers(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, s.unavailable(err)
	}
	return structpb.NewStruct(map[string]any{
		"players": playersValue(snap.Players),
	})
}

func (s *Server) ServerInfo(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, s.unavailable(err)
	}
	return structpb.NewStruct(map[string]any{
		"addr":          s.addr,
		"level":         snap.Level,
		"canconnect":    snap.AdmissionOpen,
		"players":       len(snap.Players),
		"processed":     snap.Stats.Processed,
		"decode_errors": snap.Stats.DecodeErrors,
		"unknown_types": snap.Stats.UnknownTypes,
	})
}

func (s *Server) unavailable(err error) error {
	s.logger.Warning(fmt.Sprintf("reading relay snapshot: %v", err))
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Unavailable, err.Error())
}

func playersValue(players []service.Player) []any {
	out := make([]any, 0, len(players))
	for _, p := range players {
		addr := ""
		if p.Addr != nil {
			addr = p.Addr.String()
		}
		out = append(out, map[string]any{
			"id":           p.ID,
			"name":         p.Name,
			"addr":         addr,
			"life":         p.Life,
			"session_id":   p.SessionID.String(),
			"connected_at": p.ConnectedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
