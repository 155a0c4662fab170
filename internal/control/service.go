// Package control exposes a running simulation over gRPC. The service is
// described by hand with protobuf well-known types so no generated code is
// needed.
package control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "steeringsim.v1.SimulationControl"

// Full method names, as seen by interceptors.
const (
	MethodGetClock    = "/" + ServiceName + "/GetClock"
	MethodStart       = "/" + ServiceName + "/Start"
	MethodPause       = "/" + ServiceName + "/Pause"
	MethodListActors  = "/" + ServiceName + "/ListActors"
	MethodRemoveActor = "/" + ServiceName + "/RemoveActor"
)

// SimulationControlServer is the server API for the control service.
type SimulationControlServer interface {
	GetClock(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Start(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Pause(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	ListActors(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	RemoveActor(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// RegisterSimulationControlServer registers srv on s.
func RegisterSimulationControlServer(s grpc.ServiceRegistrar, srv SimulationControlServer) {
	s.RegisterService(&SimulationControlServiceDesc, srv)
}

// SimulationControlServiceDesc describes the control service for grpc.
var SimulationControlServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulationControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetClock", Handler: unaryHandler(MethodGetClock, SimulationControlServer.GetClock)},
		{MethodName: "Start", Handler: unaryHandler(MethodStart, SimulationControlServer.Start)},
		{MethodName: "Pause", Handler: unaryHandler(MethodPause, SimulationControlServer.Pause)},
		{MethodName: "ListActors", Handler: unaryHandler(MethodListActors, SimulationControlServer.ListActors)},
		{MethodName: "RemoveActor", Handler: unaryHandler(MethodRemoveActor, SimulationControlServer.RemoveActor)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "steeringsim/v1/control.proto",
}

// unaryHandler adapts a typed method expression into a grpc method handler,
// the same shape protoc-gen-go-grpc emits per method.
func unaryHandler[Req, Resp any](
	fullMethod string,
	call func(SimulationControlServer, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SimulationControlServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SimulationControlServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
