package jwtverify

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/awsauth/go-jwt-verify/jwks"
	"github.com/awsauth/go-jwt-verify/signature"
)

// config accumulates everything the constructors need: the (single)
// issuer's expectations plus the seams shared by all issuers.
type config struct {
	issuer     IssuerConfig
	userPoolID string

	cache      jwks.Cache
	fetcher    jwks.Fetcher
	penaltyBox jwks.PenaltyBox
	httpClient *http.Client
	logger     Logger
	metrics    Metrics
	tracer     Tracer
	now        func() time.Time
}

// Option configures a verifier. Options return errors so that invalid
// values are caught during construction.
type Option func(*config) error

// WithIssuer sets the expected iss claim. Required for New and
// NewAlbVerifier; NewCognitoVerifier derives it from the user pool ID.
func WithIssuer(issuer string) Option {
	return func(c *config) error {
		if issuer == "" {
			return errors.New("issuer cannot be empty")
		}
		if _, err := url.Parse(issuer); err != nil {
			return fmt.Errorf("invalid issuer URL: %w", err)
		}
		c.issuer.Issuer = issuer
		return nil
	}
}

// WithJwksURI sets the JWKS endpoint explicitly, instead of deriving
// <issuer>/.well-known/jwks.json.
func WithJwksURI(uri string) Option {
	return func(c *config) error {
		if uri == "" {
			return errors.New("JWKS URI cannot be empty")
		}
		if _, err := url.Parse(uri); err != nil {
			return fmt.Errorf("invalid JWKS URI: %w", err)
		}
		c.issuer.JwksURI = uri
		return nil
	}
}

// WithUserPoolID sets the Cognito user pool whose tokens are accepted,
// e.g. "eu-west-1_AaBbCcDdE". Only meaningful for NewCognitoVerifier.
func WithUserPoolID(userPoolID string) Option {
	return func(c *config) error {
		if _, err := cognitoRegion(userPoolID); err != nil {
			return err
		}
		c.userPoolID = userPoolID
		return nil
	}
}

// WithAudience sets the acceptable aud values; a token must match at least
// one.
func WithAudience(audience ...string) Option {
	return func(c *config) error {
		if len(audience) == 0 {
			return errors.New("audience cannot be empty")
		}
		for i, aud := range audience {
			if aud == "" {
				return fmt.Errorf("audience at index %d cannot be empty", i)
			}
		}
		c.issuer.Audience = audience
		return nil
	}
}

// WithoutAudience disables the audience check explicitly.
func WithoutAudience() Option {
	return func(c *config) error {
		c.issuer.NoAudience = true
		return nil
	}
}

// WithClientID sets the acceptable client IDs.
func WithClientID(clientID ...string) Option {
	return func(c *config) error {
		if len(clientID) == 0 {
			return errors.New("client ID cannot be empty")
		}
		for i, id := range clientID {
			if id == "" {
				return fmt.Errorf("client ID at index %d cannot be empty", i)
			}
		}
		c.issuer.ClientID = clientID
		return nil
	}
}

// WithoutClientID disables the client ID check explicitly.
func WithoutClientID() Option {
	return func(c *config) error {
		c.issuer.NoClientID = true
		return nil
	}
}

// WithAlbArn sets the acceptable ALB ARNs, matched against the signer
// header. Only meaningful for NewAlbVerifier.
func WithAlbArn(arn ...string) Option {
	return func(c *config) error {
		if len(arn) == 0 {
			return errors.New("ALB ARN cannot be empty")
		}
		for i, a := range arn {
			if !strings.HasPrefix(a, "arn:") {
				return fmt.Errorf("ALB ARN at index %d does not look like an ARN: %q", i, a)
			}
		}
		c.issuer.AlbArn = arn
		return nil
	}
}

// WithoutAlbArn disables the signer check explicitly.
func WithoutAlbArn() Option {
	return func(c *config) error {
		c.issuer.NoAlbArn = true
		return nil
	}
}

// WithTokenUse pins Cognito's token_use claim to "id" or "access".
func WithTokenUse(tokenUse string) Option {
	return func(c *config) error {
		if tokenUse != "id" && tokenUse != "access" {
			return fmt.Errorf(`token use must be "id" or "access", got %q`, tokenUse)
		}
		c.issuer.TokenUse = tokenUse
		return nil
	}
}

// WithScopes requires the token's scope claim to include at least one of
// the given scopes.
func WithScopes(scopes ...string) Option {
	return func(c *config) error {
		if len(scopes) == 0 {
			return errors.New("scopes cannot be empty")
		}
		c.issuer.Scopes = scopes
		return nil
	}
}

// WithSignatureAlgorithms restricts the acceptable header alg values.
func WithSignatureAlgorithms(algs ...string) Option {
	return func(c *config) error {
		if len(algs) == 0 {
			return errors.New("signature algorithms cannot be empty")
		}
		for _, alg := range algs {
			if !signature.Supported(alg) {
				return fmt.Errorf("unsupported signature algorithm %q", alg)
			}
		}
		c.issuer.SignatureAlgorithms = algs
		return nil
	}
}

// WithClockSkew tolerates clock drift on exp and nbf, symmetrically.
func WithClockSkew(skew time.Duration) Option {
	return func(c *config) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		c.issuer.ClockSkew = skew
		return nil
	}
}

// WithIncludeRawJwtInErrors attaches the decomposed token to claim
// validation errors, for callers that log or inspect rejected tokens.
// Tokens whose signature did not verify are never attached.
func WithIncludeRawJwtInErrors() Option {
	return func(c *config) error {
		c.issuer.IncludeRawJwtInErrors = true
		return nil
	}
}

// WithCustomJwtCheck installs a user-supplied check that runs after all
// built-in validation.
func WithCustomJwtCheck(check CustomJwtCheck) Option {
	return func(c *config) error {
		if check == nil {
			return errors.New("custom JWT check cannot be nil")
		}
		c.issuer.CustomJwtCheck = check
		return nil
	}
}

// WithJwksCache swaps the JWKS cache. One cache may be shared across many
// verifiers. When set, WithFetcher, WithPenaltyBox and WithHTTPClient have
// no effect; configure the cache directly instead.
func WithJwksCache(cache jwks.Cache) Option {
	return func(c *config) error {
		if cache == nil {
			return errors.New("JWKS cache cannot be nil")
		}
		c.cache = cache
		return nil
	}
}

// WithFetcher swaps the Fetcher the default cache retrieves JWKS with.
func WithFetcher(f jwks.Fetcher) Option {
	return func(c *config) error {
		if f == nil {
			return errors.New("fetcher cannot be nil")
		}
		c.fetcher = f
		return nil
	}
}

// WithPenaltyBox swaps the PenaltyBox gating JWKS refreshes.
func WithPenaltyBox(p jwks.PenaltyBox) Option {
	return func(c *config) error {
		if p == nil {
			return errors.New("penalty box cannot be nil")
		}
		c.penaltyBox = p
		return nil
	}
}

// WithHTTPClient swaps the HTTP client of the default fetcher.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) error {
		if client == nil {
			return errors.New("HTTP client cannot be nil")
		}
		c.httpClient = client
		return nil
	}
}

// WithLogger attaches a logger to the verifier and its JWKS cache.
func WithLogger(l Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

// WithMetrics attaches a metrics sink to the verifier and its JWKS cache.
func WithMetrics(m Metrics) Option {
	return func(c *config) error {
		c.metrics = m
		return nil
	}
}

// WithTracer attaches a tracer; a span is recorded per verification.
func WithTracer(t Tracer) Option {
	return func(c *config) error {
		c.tracer = t
		return nil
	}
}

// WithClock injects the time source used for exp and nbf checks, for
// deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		c.now = now
		return nil
	}
}
