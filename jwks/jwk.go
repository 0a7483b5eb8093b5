package jwks

import (
	"encoding/json"
	"fmt"
)

// Key types and curves accepted for signature keys.
const (
	KeyTypeRSA = "RSA"
	KeyTypeEC  = "EC"
	KeyTypeOKP = "OKP"
)

var validCurves = map[string]map[string]bool{
	KeyTypeEC:  {"P-256": true, "P-384": true, "P-521": true},
	KeyTypeOKP: {"Ed25519": true, "Ed448": true},
}

// Jwk represents a JSON Web Key per RFC 7517. Unknown fields are tolerated
// and discarded; all recognized field values must be strings.
type Jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	Kid string `json:"kid,omitempty"`

	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`

	// EC and OKP
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// Jwks represents a JSON Web Key Set. Key order is preserved: lookup by kid
// returns the first match, so duplicate kids are legal but the first wins.
type Jwks struct {
	Keys []*Jwk `json:"keys"`
}

// FindKid returns the first key with the given kid, or nil.
func (s *Jwks) FindKid(kid string) *Jwk {
	for _, key := range s.Keys {
		if key.Kid == kid {
			return key
		}
	}
	return nil
}

// JwksValidationError is returned when a document cannot be refined into a
// JWKS.
type JwksValidationError struct {
	Message string
	Cause   error
}

func (e *JwksValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid JWKS: %s: %s", e.Message, e.Cause)
	}
	return "invalid JWKS: " + e.Message
}

func (e *JwksValidationError) Unwrap() error {
	return e.Cause
}

// JwkValidationError is returned when a single key inside a JWKS is
// structurally invalid.
type JwkValidationError struct {
	Kid     string
	Message string
}

func (e *JwkValidationError) Error() string {
	if e.Kid != "" {
		return fmt.Sprintf("invalid JWK (kid %q): %s", e.Kid, e.Message)
	}
	return "invalid JWK: " + e.Message
}

// ParseJwks parses and validates a JWKS document. The parse is tolerant of
// unknown fields but strict about the types of the fields it knows: kty is
// mandatory, use (when present) must be "sig", and an EC/OKP key that names
// a curve must name a supported one; a missing crv is not rejected here.
// Family-specific key material completeness is asserted by
// the signature dispatcher, which is the component that consumes it.
func ParseJwks(data []byte) (*Jwks, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &JwksValidationError{Message: "document is not a JSON object", Cause: err}
	}
	rawKeys, ok := probe["keys"]
	if !ok {
		return nil, &JwksValidationError{Message: `document has no "keys" member`}
	}

	var set Jwks
	if err := json.Unmarshal(rawKeys, &set.Keys); err != nil {
		return nil, &JwksValidationError{Message: `"keys" must be an array of JWK objects`, Cause: err}
	}

	for _, key := range set.Keys {
		if err := validateJwk(key); err != nil {
			return nil, err
		}
	}
	return &set, nil
}

func validateJwk(key *Jwk) error {
	if key == nil {
		return &JwkValidationError{Message: "key is null"}
	}
	switch key.Kty {
	case KeyTypeRSA, KeyTypeEC, KeyTypeOKP:
	case "":
		return &JwkValidationError{Kid: key.Kid, Message: "kty is missing"}
	default:
		return &JwkValidationError{Kid: key.Kid, Message: fmt.Sprintf("unsupported kty %q", key.Kty)}
	}
	if key.Use != "" && key.Use != "sig" {
		return &JwkValidationError{Kid: key.Kid, Message: fmt.Sprintf(`use must be "sig", got %q`, key.Use)}
	}
	if curves, ok := validCurves[key.Kty]; ok && key.Crv != "" && !curves[key.Crv] {
		return &JwkValidationError{Kid: key.Kid, Message: fmt.Sprintf("unsupported crv %q for kty %q", key.Crv, key.Kty)}
	}
	return nil
}
