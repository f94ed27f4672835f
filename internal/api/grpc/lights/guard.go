package lights

import (
	"context"
	"crypto/subtle"
	"path"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oshokin/lightshow/internal/logger"
)

// Metadata keys sent by clients.
const (
	// MetadataAuthorization carries "Bearer <control token>".
	MetadataAuthorization = "authorization"
	// MetadataHostname carries the caller's host name for audit logs.
	MetadataHostname = "x-actor-hostname"
	// MetadataUsername carries the caller's user name for audit logs.
	MetadataUsername = "x-actor-username"
)

// bearerPrefix precedes the token in the authorization header.
const bearerPrefix = "Bearer "

// readOnly lists the methods that change nothing and need no control token.
//
//nolint:gochecknoglobals // Read-only lookup table.
var readOnly = map[string]bool{
	MethodGetState:     true,
	MethodListPrograms: true,
}

// alarmExempt lists the methods allowed while the alarm plays.
//
//nolint:gochecknoglobals // Read-only lookup table.
var alarmExempt = map[string]bool{
	MethodGetState:     true,
	MethodListPrograms: true,
	MethodAlarmStarted: true,
	MethodAlarmStopped: true,
}

// AlarmChecker reports whether the alarm override is active.
type AlarmChecker interface {
	AlarmActive() bool
}

// GuardInterceptor rejects mutating calls without the control token, when one
// is configured, and option changes while the alarm plays. Reads are open like
// the websocket state feed.
func GuardInterceptor(token string, alarm AlarmChecker) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		method := path.Base(info.FullMethod)

		if token != "" && !readOnly[method] && !authorized(ctx, token) {
			return nil, status.Error(codes.Unauthenticated, "invalid control token")
		}

		if !alarmExempt[method] && alarm.AlarmActive() {
			return nil, status.Error(codes.PermissionDenied, "options are locked while the alarm is active")
		}

		return handler(ctx, req)
	}
}

// LoggingInterceptor attaches the caller to the request logger and logs every call.
func LoggingInterceptor(base context.Context) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = logger.ToContext(ctx, logger.FromContext(base))
		ctx = logger.WithKV(ctx,
			"method", path.Base(info.FullMethod),
			"hostname", firstValue(ctx, MetadataHostname),
			"username", firstValue(ctx, MetadataUsername))

		started := time.Now()
		resp, err := handler(ctx, req)

		if err != nil {
			logger.WarnKV(ctx, "Call failed", "code", status.Code(err).String(), "error", err)
		} else {
			logger.DebugKV(ctx, "Call served", "duration", time.Since(started))
		}

		return resp, err
	}
}

// authorized checks the bearer token in the incoming metadata.
func authorized(ctx context.Context, token string) bool {
	header := firstValue(ctx, MetadataAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return false
	}

	presented := strings.TrimPrefix(header, bearerPrefix)

	return subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1
}

// firstValue returns the first incoming metadata value for key.
func firstValue(ctx context.Context, key string) string {
	values := metadata.ValueFromIncomingContext(ctx, key)
	if len(values) == 0 {
		return ""
	}

	return values[0]
}
