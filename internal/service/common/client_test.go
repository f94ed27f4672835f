//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestClient_outgoing checks the metadata attached to every call.
func TestClient_outgoing(t *testing.T) {
	t.Parallel()

	bare := NewClient(nil)
	_, ok := metadata.FromOutgoingContext(bare.outgoing(context.Background()))
	require.False(t, ok)

	c := NewClient(nil,
		WithToken("secret"),
		WithActor(&Actor{Hostname: "kitchen", Username: "oleg"}))

	md, ok := metadata.FromOutgoingContext(c.outgoing(context.Background()))
	require.True(t, ok)

	want := metadata.Pairs(
		"authorization", "Bearer secret",
		"x-actor-hostname", "kitchen",
		"x-actor-username", "oleg")
	if diff := cmp.Diff(want, md); diff != "" {
		t.Errorf("outgoing metadata mismatch (-want +got):\n%s", diff)
	}
}
