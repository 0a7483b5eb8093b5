package jwks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplePenaltyBox(t *testing.T) {
	const uri = "https://issuer.example/.well-known/jwks.json"
	ctx := context.Background()

	t.Run("wait passes for an unknown URI", func(t *testing.T) {
		box := NewSimplePenaltyBox()
		require.NoError(t, box.Wait(ctx, uri, "kid"))
	})

	t.Run("wait fails fast after a failed attempt", func(t *testing.T) {
		now := time.Unix(1716239022, 0)
		box := NewSimplePenaltyBox(WithClock(func() time.Time { return now }))

		box.RegisterFailedAttempt(uri, "kid")

		err := box.Wait(ctx, uri, "kid")
		var waitErr *WaitPeriodNotYetEndedError
		require.ErrorAs(t, err, &waitErr)
		assert.Equal(t, uri, waitErr.URI)
	})

	t.Run("a successful attempt releases the URI immediately", func(t *testing.T) {
		box := NewSimplePenaltyBox()

		box.RegisterFailedAttempt(uri, "kid")
		box.RegisterSuccessfulAttempt(uri, "kid")

		require.NoError(t, box.Wait(ctx, uri, "kid"))
	})

	t.Run("the wait window expires on its own", func(t *testing.T) {
		now := time.Unix(1716239022, 0)
		box := NewSimplePenaltyBox(
			WithWaitDuration(10*time.Second),
			WithClock(func() time.Time { return now }),
		)

		box.RegisterFailedAttempt(uri, "kid")

		now = now.Add(9 * time.Second)
		require.Error(t, box.Wait(ctx, uri, "kid"))

		now = now.Add(2 * time.Second)
		require.NoError(t, box.Wait(ctx, uri, "kid"))
	})

	t.Run("URIs are penalized independently", func(t *testing.T) {
		box := NewSimplePenaltyBox()

		box.RegisterFailedAttempt(uri, "kid")

		require.NoError(t, box.Wait(ctx, "https://other.example/jwks.json", "kid"))
	})
}
