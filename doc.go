// Package jwtverify verifies JSON Web Tokens issued by AWS Cognito, AWS
// Application Load Balancers, and any other issuer that publishes a JSON
// Web Key Set over HTTPS.
//
// A Verifier is created once, against one issuer or several, and reused;
// it caches the issuers' JWKS, deduplicates concurrent fetches, and rate
// limits refreshes triggered by unknown key IDs. Verify returns the
// token's payload, or a typed error explaining why the token must be
// rejected.
//
//	verifier, err := jwtverify.NewCognitoVerifier(
//	    jwtverify.WithUserPoolID("eu-west-1_AaBbCcDdE"),
//	    jwtverify.WithClientID("26e4dd0ecbcb..."),
//	    jwtverify.WithTokenUse("access"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	payload, err := verifier.Verify(ctx, token)
//
// The package also ships a net/http middleware (CheckJWT) plus gin, echo
// and gRPC adapters under framework/.
package jwtverify
