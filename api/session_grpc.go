package api

import (
	"context"

	grpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	sessionServiceName    = "relay.v1.Session"
	listPlayersFullMethod = "/relay.v1.Session/ListPlayers"
	serverInfoFullMethod  = "/relay.v1.Session/ServerInfo"
)

// SessionServer is the admin service exposed next to the UDP relay.
// Messages are protobuf well-known types so no generated code is needed.
type SessionServer interface {
	ListPlayers(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ServerInfo(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterSessionServer registers srv on s.
func RegisterSessionServer(s grpc.ServiceRegistrar, srv SessionServer) {
	s.RegisterService(&sessionServiceDesc, srv)
}

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: sessionServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListPlayers", Handler: listPlayersHandler},
		{MethodName: "ServerInfo", Handler: serverInfoHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "relay/v1/session.proto",
}

func listPlayersHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).ListPlayers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listPlayersFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).ListPlayers(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func serverInfoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).ServerInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serverInfoFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).ServerInfo(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
