//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/lightshow/internal/api/grpc/lights"
	"github.com/oshokin/lightshow/internal/config"
	"github.com/oshokin/lightshow/internal/domain/lights"
)

// Client wraps the LightsService gRPC calls with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the lightshow server.
	conn grpc.ClientConnInterface
	// closer releases conn; nil for borrowed connections.
	closer func() error

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// token is sent as a bearer token when non-empty.
	token string
	// actor is sent for the server's audit log when non-nil.
	actor *Actor
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithToken sets the control token sent with every call.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithActor identifies the caller in the server's logs.
func WithActor(actor *Actor) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the lightshow server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial lightshow server: %w", err)
	}

	client := NewClient(conn, opts...)
	client.closer = conn.Close

	return client, nil
}

// NewClient wraps an existing connection. Close does not close it.
func NewClient(conn grpc.ClientConnInterface, opts ...Option) *Client {
	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}

	return c.closer()
}

// GetState retrieves the current engine state.
func (c *Client) GetState(ctx context.Context) (lights.State, error) {
	return c.stateCall(ctx, api.MethodGetState, new(emptypb.Empty))
}

// ListPrograms retrieves the assignable program names.
func (c *Client) ListPrograms(ctx context.Context) (api.Programs, error) {
	var out structpb.Struct
	if err := c.invoke(ctx, api.MethodListPrograms, new(emptypb.Empty), &out); err != nil {
		return api.Programs{}, err
	}

	return api.ProgramsFromProto(&out), nil
}

// SetProgram assigns a program to a target.
func (c *Client) SetProgram(ctx context.Context, target lights.Target, program string) (lights.State, error) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"target":  structpb.NewStringValue(target.String()),
		"program": structpb.NewStringValue(program),
	}}

	return c.stateCall(ctx, api.MethodSetProgram, req)
}

// SetBrightness sets the ring or strip brightness.
func (c *Client) SetBrightness(ctx context.Context, target lights.Target, value float64) (lights.State, error) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"target": structpb.NewStringValue(target.String()),
		"value":  structpb.NewNumberValue(value),
	}}

	return c.stateCall(ctx, api.MethodSetBrightness, req)
}

// SetMonochrome toggles single-color ring output.
func (c *Client) SetMonochrome(ctx context.Context, enabled bool) (lights.State, error) {
	return c.stateCall(ctx, api.MethodSetMonochrome, wrapperspb.Bool(enabled))
}

// SetProgramSpeed sets the global animation speed.
func (c *Client) SetProgramSpeed(ctx context.Context, value float64) (lights.State, error) {
	return c.stateCall(ctx, api.MethodSetProgramSpeed, wrapperspb.Double(value))
}

// SetFixedColor sets the Fixed program color from "#rrggbb".
func (c *Client) SetFixedColor(ctx context.Context, hex string) (lights.State, error) {
	return c.stateCall(ctx, api.MethodSetFixedColor, wrapperspb.String(hex))
}

// SetLightsEnabled switches the ring and strip off or back on.
func (c *Client) SetLightsEnabled(ctx context.Context, enabled bool) (lights.State, error) {
	return c.stateCall(ctx, api.MethodSetLightsEnabled, wrapperspb.Bool(enabled))
}

// AdjustScreen asks the server to re-read the screen geometry.
func (c *Client) AdjustScreen(ctx context.Context) (lights.State, error) {
	return c.stateCall(ctx, api.MethodAdjustScreen, new(emptypb.Empty))
}

// AlarmStarted starts the alarm override.
func (c *Client) AlarmStarted(ctx context.Context) (lights.State, error) {
	return c.stateCall(ctx, api.MethodAlarmStarted, new(emptypb.Empty))
}

// AlarmStopped ends the alarm override.
func (c *Client) AlarmStopped(ctx context.Context) (lights.State, error) {
	return c.stateCall(ctx, api.MethodAlarmStopped, new(emptypb.Empty))
}

// stateCall invokes a method answering with the engine state.
func (c *Client) stateCall(ctx context.Context, method string, req proto.Message) (lights.State, error) {
	var out structpb.Struct
	if err := c.invoke(ctx, method, req, &out); err != nil {
		return lights.State{}, err
	}

	return api.StateFromProto(&out)
}

// invoke performs one unary call with the client's timeout and metadata.
func (c *Client) invoke(ctx context.Context, method string, req, resp proto.Message) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.conn.Invoke(c.outgoing(callCtx), api.FullMethod(method), req, resp); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	return nil
}

// outgoing attaches the token and actor to ctx.
func (c *Client) outgoing(ctx context.Context) context.Context {
	var pairs []string

	if c.token != "" {
		pairs = append(pairs, api.MetadataAuthorization, "Bearer "+c.token)
	}

	if c.actor != nil {
		pairs = append(pairs,
			api.MetadataHostname, c.actor.Hostname,
			api.MetadataUsername, c.actor.Username)
	}

	if len(pairs) == 0 {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, pairs...)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
