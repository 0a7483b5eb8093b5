package jwks

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/awsauth/go-jwt-verify/jwt"
)

// Cache resolves (JWKS URI, kid) pairs to keys, fetching and caching key
// sets as needed. One Cache instance may back many verifiers.
type Cache interface {
	// AddJwks inserts a key set for the URI, replacing any cached one.
	AddJwks(jwksURI string, set *Jwks)

	// GetJwks fetches the key set behind the URI and caches it. Concurrent
	// calls for the same URI share a single fetch.
	GetJwks(ctx context.Context, jwksURI string) (*Jwks, error)

	// GetCachedJwk resolves the token's kid against the cached key set
	// only. It never fetches.
	GetCachedJwk(jwksURI string, decomposed *jwt.DecomposedJwt) (*Jwk, error)

	// GetJwk resolves the token's kid, refreshing the key set over the
	// network when the kid is unknown (subject to the penalty box).
	GetJwk(ctx context.Context, jwksURI string, decomposed *jwt.DecomposedJwt) (*Jwk, error)
}

// JwksNotAvailableInCacheError is returned by GetCachedJwk when nothing is
// cached for the URI.
type JwksNotAvailableInCacheError struct {
	URI string
}

func (e *JwksNotAvailableInCacheError) Error() string {
	return fmt.Sprintf("JWKS for %q is not cached; fetch it first or use the asynchronous path", e.URI)
}

// JwtWithoutValidKidError is returned when the token header carries no
// usable kid to select a key with.
type JwtWithoutValidKidError struct{}

func (e *JwtWithoutValidKidError) Error() string {
	return "token header has no kid to locate the signing key by"
}

// KidNotFoundInJwksError is returned when the key set, after any refresh,
// does not contain the token's kid.
type KidNotFoundInJwksError struct {
	Kid string
	URI string
}

func (e *KidNotFoundInJwksError) Error() string {
	return fmt.Sprintf("kid %q not found in JWKS from %q", e.Kid, e.URI)
}

// Events carries optional cache instrumentation callbacks. All fields are
// nil-safe.
type Events struct {
	// OnFetchCompleted fires after every network fetch, with the error
	// outcome.
	OnFetchCompleted func(jwksURI string, err error)

	// OnPenaltyRejected fires when the penalty box fails a refresh fast.
	OnPenaltyRejected func(jwksURI string)
}

// Logger is the subset of logging the cache uses. The root package's
// Logger satisfies it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// SimpleJwksCache is the default Cache. The URI to key-set map is replaced
// atomically per URI on every successful fetch and is never partially
// mutated; readers always observe a complete key set. At most one fetch is
// in flight per URI, and a caller whose context is cancelled abandons the
// shared fetch without blocking the others.
type SimpleJwksCache struct {
	fetcher    Fetcher
	penaltyBox PenaltyBox
	logger     Logger
	events     Events

	mu   sync.RWMutex
	sets map[string]*Jwks

	group singleflight.Group
}

// NewSimpleJwksCache returns a SimpleJwksCache with the default fetcher and
// penalty box unless overridden through options.
func NewSimpleJwksCache(opts ...CacheOption) *SimpleJwksCache {
	c := &SimpleJwksCache{
		fetcher:    NewSimpleFetcher(),
		penaltyBox: NewSimplePenaltyBox(),
		sets:       make(map[string]*Jwks),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddJwks inserts a key set for the URI. Re-adding the same set is a no-op
// in effect; a different set replaces the cached one atomically.
func (c *SimpleJwksCache) AddJwks(jwksURI string, set *Jwks) {
	c.mu.Lock()
	c.sets[jwksURI] = set
	c.mu.Unlock()
}

// GetJwks fetches, validates and caches the key set behind the URI.
// Concurrent callers share one fetch and all observe its result. On
// failure nothing is cached, so a transient fetch error never evicts a
// previously cached set.
func (c *SimpleJwksCache) GetJwks(ctx context.Context, jwksURI string) (*Jwks, error) {
	ch := c.group.DoChan(jwksURI, func() (interface{}, error) {
		// The fetch is shared; detach it from any single caller's
		// context and bound it by its own timeout instead.
		fetchCtx, cancel := context.WithTimeout(context.Background(), DefaultFetchTimeout)
		defer cancel()

		body, err := c.fetcher.Fetch(fetchCtx, jwksURI)
		if c.events.OnFetchCompleted != nil {
			c.events.OnFetchCompleted(jwksURI, err)
		}
		if err != nil {
			if c.logger != nil {
				c.logger.Warnf("JWKS fetch from %q failed: %s", jwksURI, err)
			}
			return nil, err
		}

		set, err := ParseJwks(body)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.sets[jwksURI] = set
		c.mu.Unlock()

		if c.logger != nil {
			c.logger.Debugf("cached JWKS from %q with %d keys", jwksURI, len(set.Keys))
		}
		return set, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Jwks), nil
	}
}

// GetCachedJwk resolves the token's kid against the cached key set without
// any network access.
func (c *SimpleJwksCache) GetCachedJwk(jwksURI string, decomposed *jwt.DecomposedJwt) (*Jwk, error) {
	kid := decomposed.Header.Kid
	if kid == "" {
		return nil, &JwtWithoutValidKidError{}
	}

	c.mu.RLock()
	set, ok := c.sets[jwksURI]
	c.mu.RUnlock()

	if !ok {
		return nil, &JwksNotAvailableInCacheError{URI: jwksURI}
	}
	jwk := set.FindKid(kid)
	if jwk == nil {
		return nil, &KidNotFoundInJwksError{Kid: kid, URI: jwksURI}
	}
	return jwk, nil
}

// GetJwk resolves the token's kid, first against the cached key set, then
// by refreshing it over the network. The refresh is gated by the penalty
// box, so repeated lookups of unknown kids fail fast instead of flooding
// the JWKS endpoint. A kid miss never evicts the cached set; the fresh
// fetch replaces it wholesale.
func (c *SimpleJwksCache) GetJwk(ctx context.Context, jwksURI string, decomposed *jwt.DecomposedJwt) (*Jwk, error) {
	kid := decomposed.Header.Kid
	if kid == "" {
		return nil, &JwtWithoutValidKidError{}
	}

	c.mu.RLock()
	set := c.sets[jwksURI]
	c.mu.RUnlock()

	if set != nil {
		if jwk := set.FindKid(kid); jwk != nil {
			return jwk, nil
		}
	}

	if err := c.penaltyBox.Wait(ctx, jwksURI, kid); err != nil {
		if c.events.OnPenaltyRejected != nil {
			c.events.OnPenaltyRejected(jwksURI)
		}
		return nil, err
	}

	fresh, err := c.GetJwks(ctx, jwksURI)
	if err != nil {
		return nil, err
	}

	jwk := fresh.FindKid(kid)
	if jwk == nil {
		c.penaltyBox.RegisterFailedAttempt(jwksURI, kid)
		return nil, &KidNotFoundInJwksError{Kid: kid, URI: jwksURI}
	}
	c.penaltyBox.RegisterSuccessfulAttempt(jwksURI, kid)
	return jwk, nil
}
