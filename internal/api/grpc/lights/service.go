package lights

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "lightshow.v1.LightsService"

// Method names.
const (
	MethodGetState         = "GetState"
	MethodListPrograms     = "ListPrograms"
	MethodSetProgram       = "SetProgram"
	MethodSetBrightness    = "SetBrightness"
	MethodSetMonochrome    = "SetMonochrome"
	MethodSetProgramSpeed  = "SetProgramSpeed"
	MethodSetFixedColor    = "SetFixedColor"
	MethodSetLightsEnabled = "SetLightsEnabled"
	MethodAdjustScreen     = "AdjustScreen"
	MethodAlarmStarted     = "AlarmStarted"
	MethodAlarmStopped     = "AlarmStopped"
)

// FullMethod returns the "/service/method" path of a method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// lightsServiceServer is the handler type of the service descriptor.
type lightsServiceServer interface {
	GetState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ListPrograms(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	SetProgram(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetBrightness(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetMonochrome(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error)
	SetProgramSpeed(ctx context.Context, req *wrapperspb.DoubleValue) (*structpb.Struct, error)
	SetFixedColor(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	SetLightsEnabled(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error)
	AdjustScreen(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	AlarmStarted(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	AlarmStopped(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

//nolint:gochecknoglobals // Service descriptors are registered by pointer.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*lightsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodGetState, lightsServiceServer.GetState),
		unary(MethodListPrograms, lightsServiceServer.ListPrograms),
		unary(MethodSetProgram, lightsServiceServer.SetProgram),
		unary(MethodSetBrightness, lightsServiceServer.SetBrightness),
		unary(MethodSetMonochrome, lightsServiceServer.SetMonochrome),
		unary(MethodSetProgramSpeed, lightsServiceServer.SetProgramSpeed),
		unary(MethodSetFixedColor, lightsServiceServer.SetFixedColor),
		unary(MethodSetLightsEnabled, lightsServiceServer.SetLightsEnabled),
		unary(MethodAdjustScreen, lightsServiceServer.AdjustScreen),
		unary(MethodAlarmStarted, lightsServiceServer.AlarmStarted),
		unary(MethodAlarmStopped, lightsServiceServer.AlarmStopped),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lightshow/v1/lights.proto",
}

// Register exposes server on s.
func Register(s grpc.ServiceRegistrar, server *Server) {
	s.RegisterService(&serviceDesc, server)
}

// unary builds the method descriptor of a unary call, decoding the request
// into a fresh Req and running it through the server's interceptor chain.
func unary[Req any, PReq interface {
	*Req
	proto.Message
}](
	method string,
	call func(lightsServiceServer, context.Context, PReq) (*structpb.Struct, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(
			srv any,
			ctx context.Context,
			dec func(any) error,
			interceptor grpc.UnaryServerInterceptor,
		) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}

			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(lightsServiceServer), ctx, req.(PReq)) //nolint:forcetypeassert // Fixed by the descriptor.
			}

			if interceptor == nil {
				return handler(ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}

			return interceptor(ctx, in, info, handler)
		},
	}
}
