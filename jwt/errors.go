package jwt

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidClaim anchors every claim validation failure so callers can
// check errors.Is(err, jwt.ErrInvalidClaim) without caring which claim
// was rejected.
var ErrInvalidClaim = errors.New("jwt claim validation failed")

// ParseError is returned when a token cannot be decomposed into a valid
// header, payload and signature.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid JWT: %s: %s", e.Message, e.Cause)
	}
	return "invalid JWT: " + e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

func newParseError(message string, cause error) *ParseError {
	return &ParseError{Message: message, Cause: cause}
}

// ClaimError is implemented by every claim validation error. AttachRawJwt
// is called by the verifier to include the decomposed token in the error,
// and only ever after the token's signature has been verified.
type ClaimError interface {
	error
	AttachRawJwt(*DecomposedJwt)
}

// InvalidClaimError is the catch-all claim validation error. The more
// specific claim errors below embed it, so errors.As against
// *InvalidIssuerError etc. still works, and all of them match
// ErrInvalidClaim via errors.Is.
type InvalidClaimError struct {
	Claim   string
	Message string

	// RawJwt is only populated when the verifier is configured with
	// IncludeRawJwtInErrors and the token's signature was valid.
	RawJwt *DecomposedJwt
}

func (e *InvalidClaimError) Error() string {
	return e.Message
}

func (e *InvalidClaimError) Is(target error) bool {
	return target == ErrInvalidClaim
}

// AttachRawJwt stores the decomposed token on the error.
func (e *InvalidClaimError) AttachRawJwt(d *DecomposedJwt) {
	e.RawJwt = d
}

// InvalidIssuerError is returned when the iss claim does not match any
// configured issuer.
type InvalidIssuerError struct {
	InvalidClaimError
}

// InvalidAudienceError is returned when neither the aud claim nor the
// client_id claim matches the configured expectation.
type InvalidAudienceError struct {
	InvalidClaimError
}

// ExpiredError is returned when the token's exp claim, plus the allowed
// clock skew, lies in the past.
type ExpiredError struct {
	InvalidClaimError
	ExpiredAt time.Time
}

// NotBeforeError is returned when the token's nbf claim, minus the allowed
// clock skew, lies in the future.
type NotBeforeError struct {
	InvalidClaimError
	NotBefore time.Time
}

func newInvalidClaimError(claim, format string, args ...any) *InvalidClaimError {
	return &InvalidClaimError{Claim: claim, Message: fmt.Sprintf(format, args...)}
}
