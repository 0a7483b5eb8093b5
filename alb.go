package jwtverify

import (
	"fmt"

	"github.com/awsauth/go-jwt-verify/jwt"
)

// AlbVerifier verifies JWTs minted by an AWS Application Load Balancer
// performing OIDC authentication. ALB tokens carry the signing ARN and the
// OAuth client in the token header (signer and client); both are checked
// after, and only after, signature verification.
type AlbVerifier struct {
	*Verifier
}

// NewAlbVerifier builds a verifier for ALB-minted tokens.
//
// Required options:
//   - WithIssuer
//   - WithAlbArn or WithoutAlbArn
//   - WithClientID or WithoutClientID
//
// ALB signs with ES256; the default allowed algorithm set reflects that.
//
// Example:
//
//	verifier, err := jwtverify.NewAlbVerifier(
//	    jwtverify.WithIssuer("https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_AaBbCcDdE"),
//	    jwtverify.WithAlbArn("arn:aws:elasticloadbalancing:eu-west-1:123456789012:loadbalancer/app/web/1234"),
//	    jwtverify.WithClientID("client-xyz"),
//	)
func NewAlbVerifier(opts ...Option) (*AlbVerifier, error) {
	v, err := newVerifier(kindALB, nil, opts)
	if err != nil {
		return nil, err
	}
	v.postSignatureCheck = checkAlbHeaders
	return &AlbVerifier{Verifier: v}, nil
}

// checkAlbHeaders matches the token's signer and client headers against
// the configured ALB ARNs and client IDs.
func checkAlbHeaders(cfg *IssuerConfig, d *jwt.DecomposedJwt) error {
	if !cfg.NoAlbArn {
		if !containsString(cfg.AlbArn, d.Header.Signer) {
			return &jwt.InvalidClaimError{
				Claim:   "signer",
				Message: fmt.Sprintf("token signer %q does not match the expected ALB ARN", d.Header.Signer),
			}
		}
	}
	if !cfg.NoClientID {
		if !containsString(cfg.ClientID, d.Header.Client) {
			return &jwt.InvalidClaimError{
				Claim:   "client",
				Message: fmt.Sprintf("token client %q does not match the expected client ID", d.Header.Client),
			}
		}
	}
	return nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
