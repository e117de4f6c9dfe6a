// Package v1 declares the abel.v1.Supervisor gRPC service.
//
// Every message is a protobuf well-known type, so the service needs no
// generated message code: requests are Empty, probes answer BoolValue,
// structured payloads travel as Struct or ListValue in the JSON shape of the
// pkg/lib types (see codec.go).
package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "abel.v1.Supervisor"

const (
	Supervisor_CheckDocker_FullMethodName = "/" + ServiceName + "/CheckDocker"
	Supervisor_CheckStatus_FullMethodName = "/" + ServiceName + "/CheckStatus"
	Supervisor_Running_FullMethodName     = "/" + ServiceName + "/Running"
	Supervisor_Start_FullMethodName       = "/" + ServiceName + "/Start"
	Supervisor_Stop_FullMethodName        = "/" + ServiceName + "/Stop"
	Supervisor_Snapshot_FullMethodName    = "/" + ServiceName + "/Snapshot"
	Supervisor_Links_FullMethodName       = "/" + ServiceName + "/Links"
	Supervisor_Containers_FullMethodName  = "/" + ServiceName + "/Containers"
	Supervisor_Events_FullMethodName      = "/" + ServiceName + "/Events"
)

// SupervisorServer is the server API for the abel.v1.Supervisor service.
// Implementations must embed UnimplementedSupervisorServer.
type SupervisorServer interface {
	CheckDocker(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	CheckStatus(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	Running(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	Start(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Stop(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Links(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Containers(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	// Events streams lifecycle events until the client goes away.
	Events(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
	mustEmbedUnimplementedSupervisorServer()
}

type UnimplementedSupervisorServer struct{}

func (UnimplementedSupervisorServer) CheckDocker(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CheckDocker not implemented")
}
func (UnimplementedSupervisorServer) CheckStatus(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CheckStatus not implemented")
}
func (UnimplementedSupervisorServer) Running(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Running not implemented")
}
func (UnimplementedSupervisorServer) Start(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Start not implemented")
}
func (UnimplementedSupervisorServer) Stop(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Stop not implemented")
}
func (UnimplementedSupervisorServer) Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Snapshot not implemented")
}
func (UnimplementedSupervisorServer) Links(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Links not implemented")
}
func (UnimplementedSupervisorServer) Containers(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Containers not implemented")
}
func (UnimplementedSupervisorServer) Events(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error {
	return status.Errorf(codes.Unimplemented, "method Events not implemented")
}
func (UnimplementedSupervisorServer) mustEmbedUnimplementedSupervisorServer() {}

func RegisterSupervisorServer(s grpc.ServiceRegistrar, srv SupervisorServer) {
	s.RegisterService(&Supervisor_ServiceDesc, srv)
}

// unaryHandler adapts one Empty-request method to the grpc handler shape.
func unaryHandler[Resp any](fullMethod string, call func(SupervisorServer, context.Context, *emptypb.Empty) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SupervisorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SupervisorServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func _Supervisor_Events_Handler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(SupervisorServer).Events(m, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// Supervisor_ServiceDesc is the grpc.ServiceDesc for the abel.v1.Supervisor service.
var Supervisor_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SupervisorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckDocker", Handler: unaryHandler(Supervisor_CheckDocker_FullMethodName, SupervisorServer.CheckDocker)},
		{MethodName: "CheckStatus", Handler: unaryHandler(Supervisor_CheckStatus_FullMethodName, SupervisorServer.CheckStatus)},
		{MethodName: "Running", Handler: unaryHandler(Supervisor_Running_FullMethodName, SupervisorServer.Running)},
		{MethodName: "Start", Handler: unaryHandler(Supervisor_Start_FullMethodName, SupervisorServer.Start)},
		{MethodName: "Stop", Handler: unaryHandler(Supervisor_Stop_FullMethodName, SupervisorServer.Stop)},
		{MethodName: "Snapshot", Handler: unaryHandler(Supervisor_Snapshot_FullMethodName, SupervisorServer.Snapshot)},
		{MethodName: "Links", Handler: unaryHandler(Supervisor_Links_FullMethodName, SupervisorServer.Links)},
		{MethodName: "Containers", Handler: unaryHandler(Supervisor_Containers_FullMethodName, SupervisorServer.Containers)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Events",
			Handler:       _Supervisor_Events_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "abel/v1/supervisor.proto",
}
