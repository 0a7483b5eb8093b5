package jwks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJwks(t *testing.T) {
	t.Run("it parses a JWKS with mixed key families", func(t *testing.T) {
		doc := []byte(`{
			"keys": [
				{"kty":"RSA","kid":"rsa1","use":"sig","alg":"RS256","n":"AQAB","e":"AQAB"},
				{"kty":"EC","kid":"ec1","crv":"P-256","x":"AQAB","y":"AQAB"},
				{"kty":"OKP","kid":"ed1","crv":"Ed25519","x":"AQAB"}
			]
		}`)

		set, err := ParseJwks(doc)
		require.NoError(t, err)
		require.Len(t, set.Keys, 3)
		assert.Equal(t, "rsa1", set.Keys[0].Kid)
		assert.Equal(t, "P-256", set.Keys[1].Crv)
	})

	t.Run("it tolerates unknown fields", func(t *testing.T) {
		doc := []byte(`{"keys":[{"kty":"RSA","kid":"k1","n":"AQAB","e":"AQAB","x5c":["cert"],"nbf":123}]}`)

		set, err := ParseJwks(doc)
		require.NoError(t, err)
		require.Len(t, set.Keys, 1)
	})

	t.Run("it returns the first key on kid collisions", func(t *testing.T) {
		doc := []byte(`{"keys":[
			{"kty":"RSA","kid":"dup","n":"first","e":"AQAB"},
			{"kty":"RSA","kid":"dup","n":"second","e":"AQAB"}
		]}`)

		set, err := ParseJwks(doc)
		require.NoError(t, err)

		key := set.FindKid("dup")
		require.NotNil(t, key)
		assert.Equal(t, "first", key.N)
	})

	t.Run("FindKid returns nil for an unknown kid", func(t *testing.T) {
		set := &Jwks{Keys: []*Jwk{{Kty: "RSA", Kid: "k1"}}}
		assert.Nil(t, set.FindKid("k2"))
	})

	jwksErrorCases := []struct {
		name string
		doc  string
	}{
		{name: "not JSON", doc: `ceci n'est pas du JSON`},
		{name: "not an object", doc: `["keys"]`},
		{name: "no keys member", doc: `{"kids":[]}`},
		{name: "keys not an array", doc: `{"keys":{"kty":"RSA"}}`},
		{name: "key with non-string field types", doc: `{"keys":[{"kty":"RSA","kid":42,"n":"x","e":"y"}]}`},
	}

	for _, tc := range jwksErrorCases {
		t.Run("it rejects a document that is "+tc.name, func(t *testing.T) {
			_, err := ParseJwks([]byte(tc.doc))

			var validationErr *JwksValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}

	jwkErrorCases := []struct {
		name string
		doc  string
	}{
		{name: "missing kty", doc: `{"keys":[{"kid":"k1","n":"x","e":"y"}]}`},
		{name: "unsupported kty", doc: `{"keys":[{"kty":"oct","kid":"k1"}]}`},
		{name: "encryption use", doc: `{"keys":[{"kty":"RSA","kid":"k1","use":"enc","n":"x","e":"y"}]}`},
		{name: "unsupported EC curve", doc: `{"keys":[{"kty":"EC","kid":"k1","crv":"secp256k1","x":"x","y":"y"}]}`},
		{name: "unsupported OKP curve", doc: `{"keys":[{"kty":"OKP","kid":"k1","crv":"X25519","x":"x"}]}`},
	}

	for _, tc := range jwkErrorCases {
		t.Run("it rejects a key with "+tc.name, func(t *testing.T) {
			_, err := ParseJwks([]byte(tc.doc))

			var validationErr *JwkValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}
}
