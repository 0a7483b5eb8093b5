package jwks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultPenaltyWait is how long a URI stays in the penalty box after a
// failed key lookup.
const DefaultPenaltyWait = 10 * time.Second

// PenaltyBox rate-limits JWKS refreshes per URI. Without it, an attacker
// sending tokens with unknown kids could drive a fetch per token against
// the issuer's JWKS endpoint.
//
// Wait does not block: while a URI is inside its wait window it fails fast
// with *WaitPeriodNotYetEndedError, leaving real waiting to retry layers
// upstream.
type PenaltyBox interface {
	Wait(ctx context.Context, jwksURI, kid string) error
	RegisterFailedAttempt(jwksURI, kid string)
	RegisterSuccessfulAttempt(jwksURI, kid string)
}

// WaitPeriodNotYetEndedError is returned by Wait while the URI's penalty
// window is still open.
type WaitPeriodNotYetEndedError struct {
	URI   string
	Until time.Time
}

func (e *WaitPeriodNotYetEndedError) Error() string {
	return fmt.Sprintf("JWKS fetch for %q is rate limited until %s", e.URI, e.Until.UTC().Format(time.RFC3339))
}

// SimplePenaltyBox is the default PenaltyBox. State is a per-URI deadline;
// entries clear on expiry or on a successful attempt. No timer goroutines
// are kept, so an idle penalty box never keeps the process alive.
type SimplePenaltyBox struct {
	waitDuration time.Duration
	now          func() time.Time

	mu        sync.Mutex
	deadlines map[string]time.Time
}

// NewSimplePenaltyBox returns a SimplePenaltyBox with the default wait
// duration.
func NewSimplePenaltyBox(opts ...PenaltyBoxOption) *SimplePenaltyBox {
	p := &SimplePenaltyBox{
		waitDuration: DefaultPenaltyWait,
		now:          time.Now,
		deadlines:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait fails fast while the URI is inside its wait window. Expired entries
// are cleared on the way.
func (p *SimplePenaltyBox) Wait(_ context.Context, jwksURI, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	deadline, ok := p.deadlines[jwksURI]
	if !ok {
		return nil
	}
	if p.now().Before(deadline) {
		return &WaitPeriodNotYetEndedError{URI: jwksURI, Until: deadline}
	}
	delete(p.deadlines, jwksURI)
	return nil
}

// RegisterFailedAttempt starts (or restarts) the URI's wait window.
func (p *SimplePenaltyBox) RegisterFailedAttempt(jwksURI, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deadlines[jwksURI] = p.now().Add(p.waitDuration)
}

// RegisterSuccessfulAttempt releases the URI immediately.
func (p *SimplePenaltyBox) RegisterSuccessfulAttempt(jwksURI, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.deadlines, jwksURI)
}
