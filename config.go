package jwtverify

import (
	"context"
	"strings"
	"time"

	"github.com/awsauth/go-jwt-verify/jwks"
	"github.com/awsauth/go-jwt-verify/jwt"
)

// CustomJwtCheck is a user-supplied validation hook. It runs last in the
// verification pipeline, after the signature and all standard claims have
// been checked, and any error it returns propagates to the caller as-is.
type CustomJwtCheck func(ctx context.Context, token *jwt.DecomposedJwt, key *jwks.Jwk) error

// IssuerConfig describes the expectations tokens from one issuer are
// verified against. For single-issuer verifiers it is assembled through
// options; NewMulti takes a slice of them directly.
//
// The NoAudience, NoClientID and NoAlbArn fields disable their check
// explicitly. Leaving a mandatory expectation both unset and not disabled
// is a configuration error, surfaced when a token is verified without a
// per-call override supplying it.
type IssuerConfig struct {
	// Issuer is the expected iss claim. Required.
	Issuer string

	// JwksURI locates the issuer's key set. Derived as
	// <issuer>/.well-known/jwks.json when empty.
	JwksURI string

	// Audience lists acceptable aud values.
	Audience   []string
	NoAudience bool

	// ClientID lists acceptable client IDs: the client_id claim for
	// Cognito access tokens, the client header for ALB tokens.
	ClientID   []string
	NoClientID bool

	// AlbArn lists acceptable ALB ARNs, matched against the token's
	// signer header. Only meaningful for ALB verifiers.
	AlbArn   []string
	NoAlbArn bool

	// TokenUse pins Cognito's token_use claim to "id" or "access".
	TokenUse string

	// Scopes lists OAuth scopes of which the token must carry at least
	// one.
	Scopes []string

	// SignatureAlgorithms restricts acceptable header alg values.
	// Defaults depend on the verifier kind: RS256 for Cognito, ES256 for
	// ALB, every supported algorithm otherwise.
	SignatureAlgorithms []string

	// ClockSkew is tolerated on exp and nbf, symmetrically.
	ClockSkew time.Duration

	// IncludeRawJwtInErrors attaches the decomposed token to claim
	// validation errors. The attachment only ever happens after the
	// token's signature has been verified.
	IncludeRawJwtInErrors bool

	// CustomJwtCheck runs after all built-in checks.
	CustomJwtCheck CustomJwtCheck
}

// jwksURI returns the configured JWKS URI, deriving the conventional
// well-known location from the issuer when unset.
func (c *IssuerConfig) jwksURI() string {
	if c.JwksURI != "" {
		return c.JwksURI
	}
	return strings.TrimSuffix(c.Issuer, "/") + "/.well-known/jwks.json"
}

// VerifyOption overrides parts of the effective issuer configuration for a
// single Verify or VerifySync call.
type VerifyOption func(*IssuerConfig)

// OverrideAudience replaces the expected audience for this call.
func OverrideAudience(audience ...string) VerifyOption {
	return func(c *IssuerConfig) {
		c.Audience = audience
		c.NoAudience = false
	}
}

// OverrideClientID replaces the expected client IDs for this call.
func OverrideClientID(clientID ...string) VerifyOption {
	return func(c *IssuerConfig) {
		c.ClientID = clientID
		c.NoClientID = false
	}
}

// OverrideAlbArn replaces the expected ALB ARNs for this call.
func OverrideAlbArn(arn ...string) VerifyOption {
	return func(c *IssuerConfig) {
		c.AlbArn = arn
		c.NoAlbArn = false
	}
}

// OverrideTokenUse replaces the expected token_use for this call.
func OverrideTokenUse(tokenUse string) VerifyOption {
	return func(c *IssuerConfig) {
		c.TokenUse = tokenUse
	}
}

// OverrideScopes replaces the required scopes for this call.
func OverrideScopes(scopes ...string) VerifyOption {
	return func(c *IssuerConfig) {
		c.Scopes = scopes
	}
}

// OverrideClockSkew replaces the allowed clock skew for this call.
func OverrideClockSkew(skew time.Duration) VerifyOption {
	return func(c *IssuerConfig) {
		c.ClockSkew = skew
	}
}

// OverrideIncludeRawJwtInErrors toggles raw JWT attachment for this call.
func OverrideIncludeRawJwtInErrors(include bool) VerifyOption {
	return func(c *IssuerConfig) {
		c.IncludeRawJwtInErrors = include
	}
}

// OverrideCustomJwtCheck replaces the custom check for this call.
func OverrideCustomJwtCheck(check CustomJwtCheck) VerifyOption {
	return func(c *IssuerConfig) {
		c.CustomJwtCheck = check
	}
}
