// Package jwt decomposes JSON Web Tokens in compact serialization and
// validates their claims. It deliberately knows nothing about key material
// or signatures; signature verification lives in the signature package.
package jwt

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

const (
	// maxTokenBytes rejects absurdly large tokens before any decoding
	// happens. Valid JWTs rarely exceed a few KB.
	maxTokenBytes = 1024 * 1024

	// maxTokenDots rejects inputs with more dots than compact JWS
	// serialization allows, before strings.Split allocates for them.
	maxTokenDots = 2
)

// DecomposedJwt is a JWT split into its three segments. The base64url
// encoded header and payload are retained because the signature is computed
// over headerB64 || '.' || payloadB64, not over the decoded JSON.
type DecomposedJwt struct {
	Header     Header
	RawHeader  map[string]any
	Payload    Payload
	RawPayload map[string]any

	HeaderB64    string
	PayloadB64   string
	SignatureB64 string

	// Signature holds the raw signature bytes. Length checks are per
	// algorithm and happen during dispatch.
	Signature []byte
}

// SignedInput returns the bytes the token's signature was computed over.
func (d *DecomposedJwt) SignedInput() []byte {
	return []byte(d.HeaderB64 + "." + d.PayloadB64)
}

// String recomposes the original compact serialization.
func (d *DecomposedJwt) String() string {
	return d.HeaderB64 + "." + d.PayloadB64 + "." + d.SignatureB64
}

// Decompose parses a JWT in compact serialization into its header, payload
// and signature. It validates structure only: three non-empty base64url
// segments, JSON object header and payload, and a non-empty string alg.
// Signature validity and claim values are checked by the caller.
func Decompose(token string) (*DecomposedJwt, error) {
	if token == "" {
		return nil, newParseError("empty token", nil)
	}
	if len(token) > maxTokenBytes {
		return nil, newParseError("token exceeds maximum size", nil)
	}
	if strings.Count(token, ".") > maxTokenDots {
		return nil, newParseError("token has too many segments", nil)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, newParseError("token must consist of three non-empty segments separated by dots", nil)
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, newParseError("header is not valid base64url", err)
	}
	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, newParseError("payload is not valid base64url", err)
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, newParseError("signature is not valid base64url", err)
	}

	d := &DecomposedJwt{
		HeaderB64:    parts[0],
		PayloadB64:   parts[1],
		SignatureB64: parts[2],
		Signature:    signature,
	}

	if err := json.Unmarshal(headerJSON, &d.RawHeader); err != nil {
		return nil, newParseError("header is not a JSON object", err)
	}
	if err := json.Unmarshal(headerJSON, &d.Header); err != nil {
		return nil, newParseError("header has malformed fields", err)
	}
	if alg, ok := d.RawHeader["alg"].(string); !ok || alg == "" {
		return nil, newParseError("header alg must be a non-empty string", nil)
	}

	if err := json.Unmarshal(payloadJSON, &d.RawPayload); err != nil {
		return nil, newParseError("payload is not a JSON object", err)
	}
	if err := json.Unmarshal(payloadJSON, &d.Payload); err != nil {
		return nil, newParseError("payload has malformed fields", err)
	}
	d.Payload.Raw = d.RawPayload

	return d, nil
}
