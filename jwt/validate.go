package jwt

import (
	"strings"
	"time"
)

// Expected holds the claim expectations a token is validated against.
// Zero-valued fields are skipped, except Issuers which must be non-empty.
// Modeled after the merged, effective configuration the verifier builds per
// call; the verifier owns defaulting and override merging.
type Expected struct {
	// Issuers is the set of acceptable iss values. Required.
	Issuers []string

	// Audience lists acceptable aud values; the token's aud (string or
	// array) must intersect it. Nil skips the check.
	Audience []string

	// ClientID lists acceptable client_id values. Nil skips the check.
	// When both Audience and ClientID are set, a match on either one is
	// accepted (Cognito access tokens carry client_id instead of aud).
	ClientID []string

	// TokenUse pins the Cognito token_use claim to "id" or "access".
	// Empty skips the check.
	TokenUse string

	// Scopes lists required scopes; the token's space-separated scope
	// claim must contain at least one of them. Nil skips the check.
	Scopes []string

	// ClockSkew is applied symmetrically to exp and nbf.
	ClockSkew time.Duration

	// Now supplies the wall clock. Defaults to time.Now.
	Now func() time.Time
}

// ValidateClaims checks the decomposed token's claims against the
// expectations, in a fixed order: iss, aud/client_id, exp, nbf, token_use,
// scope. The first failing check wins. It must only be called after the
// token's signature has been verified.
func ValidateClaims(d *DecomposedJwt, expected Expected) error {
	now := time.Now
	if expected.Now != nil {
		now = expected.Now
	}

	if err := checkIssuer(d.Payload.Issuer, expected.Issuers); err != nil {
		return err
	}
	if err := checkAudience(d.Payload, expected.Audience, expected.ClientID); err != nil {
		return err
	}
	if err := checkTimestamps(d.Payload, expected.ClockSkew, now()); err != nil {
		return err
	}
	if expected.TokenUse != "" {
		if err := checkTokenUse(d.Payload.TokenUse, expected.TokenUse); err != nil {
			return err
		}
	}
	if len(expected.Scopes) > 0 {
		if err := checkScope(d.Payload.Scope, expected.Scopes); err != nil {
			return err
		}
	}
	return nil
}

func checkIssuer(issuer string, allowed []string) error {
	if len(allowed) == 0 {
		return &InvalidIssuerError{*newInvalidClaimError("iss", "no issuer configured to validate against")}
	}
	for _, iss := range allowed {
		if issuer == iss {
			return nil
		}
	}
	return &InvalidIssuerError{*newInvalidClaimError("iss", "issuer %q is not trusted", issuer)}
}

func checkAudience(payload Payload, audience, clientID []string) error {
	if len(audience) == 0 && len(clientID) == 0 {
		return nil
	}
	if len(audience) > 0 && payload.Audience.ContainsAny(audience) {
		return nil
	}
	if len(clientID) > 0 {
		for _, id := range clientID {
			if payload.ClientID == id {
				return nil
			}
		}
	}
	if len(audience) > 0 {
		return &InvalidAudienceError{*newInvalidClaimError("aud", "audience %v does not match expected audience", []string(payload.Audience))}
	}
	return &InvalidAudienceError{*newInvalidClaimError("client_id", "client_id %q does not match expected client", payload.ClientID)}
}

func checkTimestamps(payload Payload, skew time.Duration, now time.Time) error {
	if payload.Expiry == 0 {
		return &InvalidClaimError{Claim: "exp", Message: "token has no expiration (exp)"}
	}
	expiresAt := time.Unix(payload.Expiry, 0)
	if now.After(expiresAt.Add(skew)) {
		return &ExpiredError{
			InvalidClaimError: *newInvalidClaimError("exp", "token expired at %s", expiresAt.UTC().Format(time.RFC3339)),
			ExpiredAt:         expiresAt,
		}
	}
	if payload.NotBefore != 0 {
		notBefore := time.Unix(payload.NotBefore, 0)
		if now.Add(skew).Before(notBefore) {
			return &NotBeforeError{
				InvalidClaimError: *newInvalidClaimError("nbf", "token not valid before %s", notBefore.UTC().Format(time.RFC3339)),
				NotBefore:         notBefore,
			}
		}
	}
	return nil
}

func checkTokenUse(actual, expected string) error {
	if actual != expected {
		return newInvalidClaimError("token_use", "token_use %q does not match expected %q", actual, expected)
	}
	return nil
}

func checkScope(scope string, required []string) error {
	granted := strings.Fields(scope)
	for _, want := range required {
		for _, have := range granted {
			if want == have {
				return nil
			}
		}
	}
	return newInvalidClaimError("scope", "scope %q does not include any of the required scopes", scope)
}
