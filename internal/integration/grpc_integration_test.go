package integration

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/lightshow/internal/config"
	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/program"
	"github.com/oshokin/lightshow/internal/service/common"
	"github.com/oshokin/lightshow/internal/service/server"
)

const testToken = "secret"

// reservePort returns a free local address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// startDaemon runs the real daemon without hardware and returns its gRPC and
// HTTP addresses. The daemon stops when the test ends.
func startDaemon(t *testing.T, settingsPath string) (grpcAddr, httpAddr string) {
	t.Helper()

	grpcAddr, httpAddr = reservePort(t), reservePort(t)
	cfgPath := filepath.Join(t.TempDir(), "lightshow.yaml")

	// Create temporary configuration file with every device disabled.
	require.NoError(t, config.Save(cfgPath, &config.Config{
		ListenAddress:   grpcAddr,
		HTTPAddress:     httpAddr,
		SettingsBackend: config.BackendFile,
		SettingsPath:    settingsPath,
		ControlToken:    testToken,
		Timeout:         5 * time.Second,
		Ring:            config.RingConfig{Disabled: true},
		Screen:          config.ScreenConfig{Disabled: true},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{ConfigPath: cfgPath})
	}()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	return grpcAddr, httpAddr
}

// dial connects a client and waits until the daemon answers.
func dial(t *testing.T, addr string, opts ...common.Option) *common.Client {
	t.Helper()

	c, err := common.Dial(context.Background(), addr, append(opts, common.WithCallTimeout(time.Second))...)
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Close() })

	return c
}

// TestDaemon_Roundtrip starts the real daemon and exercises the client.
func TestDaemon_Roundtrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	grpcAddr, httpAddr := startDaemon(t, filepath.Join(t.TempDir(), "settings.json"))

	actor := &common.Actor{Hostname: "test-hostname", Username: "test-user"}
	c := dial(t, grpcAddr, common.WithToken(testToken), common.WithActor(actor))

	var state lights.State

	require.Eventually(t, func() bool {
		var err error
		state, err = c.GetState(ctx)

		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	require.False(t, state.LightsEnabled)
	require.False(t, state.Ring.Connected)
	require.Equal(t, program.NameDisabled, state.Ring.Program)

	programs, err := c.ListPrograms(ctx)
	require.NoError(t, err)
	require.Contains(t, programs.Color, program.NameRainbow)
	require.Equal(t, []string{program.NameCircle}, programs.Screen)

	state, err = c.SetProgramSpeed(ctx, 2)
	require.NoError(t, err)
	require.InDelta(t, 2, state.ProgramSpeed, 1e-9)

	state, err = c.SetFixedColor(ctx, "#123456")
	require.NoError(t, err)
	require.Equal(t, "#123456", state.FixedColor)

	_, err = c.SetFixedColor(ctx, "blue")
	require.Equal(t, codes.InvalidArgument, status.Code(errorsCause(err)))

	_, err = c.SetProgram(ctx, lights.TargetRing, program.NameRainbow)
	require.Equal(t, codes.FailedPrecondition, status.Code(errorsCause(err)))

	// The websocket feed starts with the current state.
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+httpAddr+"/state", nil)
	require.NoError(t, err)

	_ = resp.Body.Close()

	defer func() { _ = conn.Close() }()

	var pushed lights.State
	require.NoError(t, conn.ReadJSON(&pushed))
	require.Equal(t, "#123456", pushed.FixedColor)

	// Changes are pushed to the feed.
	_, err = c.SetProgramSpeed(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, conn.ReadJSON(&pushed))
	require.InDelta(t, 3, pushed.ProgramSpeed, 1e-9)
}

// TestDaemon_RejectsMissingToken asserts the control token is enforced on
// changes and not on reads.
func TestDaemon_RejectsMissingToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	grpcAddr, _ := startDaemon(t, filepath.Join(t.TempDir(), "settings.json"))

	authorized := dial(t, grpcAddr, common.WithToken(testToken))
	require.Eventually(t, func() bool {
		_, err := authorized.GetState(ctx)

		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	anonymous := dial(t, grpcAddr)

	_, err := anonymous.GetState(ctx)
	require.NoError(t, err)

	_, err = anonymous.SetProgramSpeed(ctx, 2)
	require.Equal(t, codes.Unauthenticated, status.Code(errorsCause(err)))
	require.True(t, strings.Contains(err.Error(), "SetProgramSpeed"))
}
