package jwtverify

import (
	"fmt"
	"strings"
)

// CognitoVerifier verifies JWTs issued by an AWS Cognito user pool. On top
// of the base pipeline it pins the issuer and JWKS URI to the pool, the
// signing algorithm to RS256, and validates token_use, client_id and scope
// according to configuration.
type CognitoVerifier struct {
	*Verifier

	// UserPoolID is the pool whose tokens this verifier accepts.
	UserPoolID string
}

// NewCognitoVerifier builds a verifier for one Cognito user pool.
//
// Required options:
//   - WithUserPoolID
//   - WithClientID or WithoutClientID — the client expectation may also be
//     supplied per call via OverrideClientID
//
// Common optional options: WithTokenUse ("id" or "access"), WithScopes,
// WithClockSkew.
//
// Example:
//
//	verifier, err := jwtverify.NewCognitoVerifier(
//	    jwtverify.WithUserPoolID("eu-west-1_AaBbCcDdE"),
//	    jwtverify.WithClientID("26e4dd0ecbcb..."),
//	    jwtverify.WithTokenUse("access"),
//	    jwtverify.WithScopes("orders:read"),
//	)
func NewCognitoVerifier(opts ...Option) (*CognitoVerifier, error) {
	derive := func(c *config) error {
		if c.userPoolID == "" {
			return fmt.Errorf("user pool ID is required (use WithUserPoolID)")
		}
		region, err := cognitoRegion(c.userPoolID)
		if err != nil {
			return err
		}
		c.issuer.Issuer = fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, c.userPoolID)
		c.issuer.JwksURI = c.issuer.Issuer + "/.well-known/jwks.json"
		return nil
	}

	v, err := newVerifier(kindCognito, nil, append(opts, derive))
	if err != nil {
		return nil, err
	}

	cv := &CognitoVerifier{Verifier: v}
	cv.UserPoolID = strings.TrimPrefix(v.configs[0].Issuer, "https://")
	if idx := strings.LastIndex(cv.UserPoolID, "/"); idx >= 0 {
		cv.UserPoolID = cv.UserPoolID[idx+1:]
	}
	return cv, nil
}

// cognitoRegion extracts the AWS region from a user pool ID of the form
// "<region>_<id>".
func cognitoRegion(userPoolID string) (string, error) {
	region, rest, found := strings.Cut(userPoolID, "_")
	if !found || region == "" || rest == "" {
		return "", fmt.Errorf("user pool ID %q is not of the form <region>_<id>", userPoolID)
	}
	return region, nil
}
