// Package signature verifies JWT signatures, dispatching on the token's
// alg and the key's family. Any failure inside a cryptographic primitive
// surfaces uniformly as *InvalidSignatureError so that no library detail
// leaks into the error surface callers branch on.
package signature

import (
	"crypto"

	"github.com/awsauth/go-jwt-verify/jwks"
)

// Supported JWS signature algorithms.
const (
	RS256 = "RS256"
	RS384 = "RS384"
	RS512 = "RS512"
	PS256 = "PS256"
	PS384 = "PS384"
	PS512 = "PS512"
	ES256 = "ES256"
	ES384 = "ES384"
	ES512 = "ES512"
	EdDSA = "EdDSA"
)

// AllAlgorithms lists every algorithm this package can verify.
var AllAlgorithms = []string{
	RS256, RS384, RS512,
	PS256, PS384, PS512,
	ES256, ES384, ES512,
	EdDSA,
}

// InvalidSignatureError is returned for every signature verification
// failure: mismatched signatures, malformed key material, malformed
// signature encodings, and algorithm/key-family mismatches alike.
type InvalidSignatureError struct {
	Message string
}

func (e *InvalidSignatureError) Error() string {
	return "invalid signature: " + e.Message
}

func errInvalid(message string) error {
	return &InvalidSignatureError{Message: message}
}

type algorithmParams struct {
	kty  string
	crv  string // ECDSA only
	hash crypto.Hash
}

var algorithms = map[string]algorithmParams{
	RS256: {kty: jwks.KeyTypeRSA, hash: crypto.SHA256},
	RS384: {kty: jwks.KeyTypeRSA, hash: crypto.SHA384},
	RS512: {kty: jwks.KeyTypeRSA, hash: crypto.SHA512},
	PS256: {kty: jwks.KeyTypeRSA, hash: crypto.SHA256},
	PS384: {kty: jwks.KeyTypeRSA, hash: crypto.SHA384},
	PS512: {kty: jwks.KeyTypeRSA, hash: crypto.SHA512},
	ES256: {kty: jwks.KeyTypeEC, crv: "P-256", hash: crypto.SHA256},
	ES384: {kty: jwks.KeyTypeEC, crv: "P-384", hash: crypto.SHA384},
	ES512: {kty: jwks.KeyTypeEC, crv: "P-521", hash: crypto.SHA512},
	EdDSA: {kty: jwks.KeyTypeOKP},
}

// Supported reports whether alg names an algorithm this package verifies.
func Supported(alg string) bool {
	_, ok := algorithms[alg]
	return ok
}

// Verify checks sig over signedInput using the given JWK. The key's family
// must match the algorithm's, and when the key itself declares an alg, the
// token's alg must equal it.
func Verify(alg string, key *jwks.Jwk, signedInput, sig []byte) error {
	params, ok := algorithms[alg]
	if !ok {
		return errInvalid("unsupported algorithm " + alg)
	}
	if key.Alg != "" && key.Alg != alg {
		return errInvalid("token alg " + alg + " does not match key alg " + key.Alg)
	}
	if key.Kty != params.kty {
		return errInvalid("algorithm " + alg + " requires a key of type " + params.kty + ", got " + key.Kty)
	}

	switch params.kty {
	case jwks.KeyTypeRSA:
		return verifyRSA(alg, params.hash, key, signedInput, sig)
	case jwks.KeyTypeEC:
		return verifyECDSA(params.crv, params.hash, key, signedInput, sig)
	default:
		return verifyEdDSA(key, signedInput, sig)
	}
}
