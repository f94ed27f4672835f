package lights

import (
	"context"
	"errors"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/engine"
	"github.com/oshokin/lightshow/internal/logger"
)

// Service abstracts the engine operations the transport layer depends on.
type Service interface {
	State() lights.State
	ColorPrograms() []string
	ScreenPrograms() []string
	AlarmActive() bool
	SetProgram(ctx context.Context, target lights.Target, name string) error
	SetBrightness(ctx context.Context, target lights.Target, value float64) error
	SetMonochrome(ctx context.Context, enabled bool) error
	SetProgramSpeed(ctx context.Context, value float64) error
	SetFixedColor(ctx context.Context, hex string) error
	SetLightsEnabled(ctx context.Context, enabled bool) error
	AdjustScreen(ctx context.Context) error
	AlarmStarted(ctx context.Context)
	AlarmStopped(ctx context.Context)
}

// Server implements the LightsService gRPC API.
type Server struct {
	// service provides the engine operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetState returns the current engine snapshot.
func (s *Server) GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return s.state()
}

// ListPrograms returns the assignable program names.
func (s *Server) ListPrograms(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	out, err := programsToProto(Programs{
		Color:  s.service.ColorPrograms(),
		Screen: s.service.ScreenPrograms(),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode programs")
	}

	return out, nil
}

// SetProgram assigns a program to a target.
func (s *Server) SetProgram(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	target, err := targetField(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	name := req.GetFields()[fieldProgram].GetStringValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "program is required")
	}

	return s.apply(ctx, s.service.SetProgram(ctx, target, name))
}

// SetBrightness sets the brightness of the ring or strip.
func (s *Server) SetBrightness(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	target, err := targetField(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	value, ok := req.GetFields()[fieldValue].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "value is required")
	}

	return s.apply(ctx, s.service.SetBrightness(ctx, target, value.NumberValue))
}

// SetMonochrome toggles single-color ring output.
func (s *Server) SetMonochrome(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error) {
	return s.apply(ctx, s.service.SetMonochrome(ctx, req.GetValue()))
}

// SetProgramSpeed sets the global animation speed.
func (s *Server) SetProgramSpeed(ctx context.Context, req *wrapperspb.DoubleValue) (*structpb.Struct, error) {
	if req == nil || math.IsNaN(req.GetValue()) {
		return nil, status.Error(codes.InvalidArgument, "value is required")
	}

	return s.apply(ctx, s.service.SetProgramSpeed(ctx, req.GetValue()))
}

// SetFixedColor sets the Fixed program color.
func (s *Server) SetFixedColor(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return s.apply(ctx, s.service.SetFixedColor(ctx, req.GetValue()))
}

// SetLightsEnabled switches the ring and strip off or back on.
func (s *Server) SetLightsEnabled(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error) {
	return s.apply(ctx, s.service.SetLightsEnabled(ctx, req.GetValue()))
}

// AdjustScreen re-reads the screen geometry.
func (s *Server) AdjustScreen(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.apply(ctx, s.service.AdjustScreen(ctx))
}

// AlarmStarted begins the alarm override.
func (s *Server) AlarmStarted(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.service.AlarmStarted(ctx)

	return s.state()
}

// AlarmStopped ends the alarm override.
func (s *Server) AlarmStopped(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.service.AlarmStopped(ctx)

	return s.state()
}

// apply maps an operation result to a gRPC response carrying the new state.
func (s *Server) apply(ctx context.Context, err error) (*structpb.Struct, error) {
	if err != nil {
		code := errorCode(err)
		if code == codes.Internal {
			logger.ErrorKV(ctx, "Operation failed", "error", err)

			return nil, status.Error(code, "operation failed")
		}

		return nil, status.Error(code, err.Error())
	}

	return s.state()
}

// state encodes the current snapshot.
func (s *Server) state() (*structpb.Struct, error) {
	out, err := stateToProto(s.service.State())
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode state")
	}

	return out, nil
}

// errorCode maps engine errors to gRPC status codes.
func errorCode(err error) codes.Code {
	switch {
	case errors.Is(err, engine.ErrUnknownProgram),
		errors.Is(err, engine.ErrUnsupportedProgram),
		errors.Is(err, engine.ErrUnsupportedTarget),
		errors.Is(err, engine.ErrInvalidBrightness),
		errors.Is(err, engine.ErrInvalidSpeed),
		errors.Is(err, lights.ErrInvalidColor),
		errors.Is(err, lights.ErrUnknownTarget):
		return codes.InvalidArgument
	case errors.Is(err, engine.ErrDeviceNotConnected),
		errors.Is(err, engine.ErrScreenProgramActive):
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

var _ lightsServiceServer = (*Server)(nil)
