package jwtverify

import (
	"context"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awsauth/go-jwt-verify/jwks"
	"github.com/awsauth/go-jwt-verify/jwt"
	"github.com/awsauth/go-jwt-verify/signature"
)

const (
	testUserPoolID = "eu-west-1_AaBbCcDdE"
	testPoolIssuer = "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_AaBbCcDdE"
	testClientID   = "26e4dd0ecbcb9cb3ad0e2eb1"
)

func newCognitoVerifier(t *testing.T, extra ...Option) (*CognitoVerifier, func(claims map[string]any) string) {
	t.Helper()
	priv, pub := newRSAKeyPair(t, "cog1")

	opts := append([]Option{
		WithUserPoolID(testUserPoolID),
		WithClientID(testClientID),
	}, extra...)

	verifier, err := NewCognitoVerifier(opts...)
	require.NoError(t, err)

	set, err := jwks.ParseJwks(marshalJwks(t, pub))
	require.NoError(t, err)
	require.NoError(t, verifier.CacheJwks(set, ""))

	sign := func(claims map[string]any) string {
		return signToken(t, jwa.RS256, priv, "cog1", claims, nil)
	}
	return verifier, sign
}

func TestCognitoVerifier_DerivedConfiguration(t *testing.T) {
	verifier, err := NewCognitoVerifier(
		WithUserPoolID(testUserPoolID),
		WithClientID(testClientID),
	)
	require.NoError(t, err)

	assert.Equal(t, testUserPoolID, verifier.UserPoolID)
	assert.Equal(t, testPoolIssuer, verifier.configs[0].Issuer)
	assert.Equal(t, testPoolIssuer+"/.well-known/jwks.json", verifier.configs[0].JwksURI)
}

func TestCognitoVerifier_AccessToken(t *testing.T) {
	verifier, sign := newCognitoVerifier(t,
		WithTokenUse("access"),
		WithScopes("orders:read"),
	)

	base := map[string]any{
		"iss":       testPoolIssuer,
		"client_id": testClientID,
		"token_use": "access",
		"scope":     "openid orders:read",
		"exp":       time.Now().Unix() + 60,
	}

	t.Run("it accepts a valid access token", func(t *testing.T) {
		payload, err := verifier.VerifySync(sign(base))
		require.NoError(t, err)
		assert.Equal(t, "access", payload.TokenUse)
	})

	t.Run("it rejects an id token", func(t *testing.T) {
		claims := cloneClaims(base)
		claims["token_use"] = "id"

		_, err := verifier.VerifySync(sign(claims))
		var claimErr *jwt.InvalidClaimError
		require.ErrorAs(t, err, &claimErr)
		assert.Equal(t, "token_use", claimErr.Claim)
	})

	t.Run("it rejects a token without the required scope", func(t *testing.T) {
		claims := cloneClaims(base)
		claims["scope"] = "openid profile"

		_, err := verifier.VerifySync(sign(claims))
		var claimErr *jwt.InvalidClaimError
		require.ErrorAs(t, err, &claimErr)
		assert.Equal(t, "scope", claimErr.Claim)
	})

	t.Run("it rejects a foreign client_id", func(t *testing.T) {
		claims := cloneClaims(base)
		claims["client_id"] = "someone-else"

		_, err := verifier.VerifySync(sign(claims))
		var audErr *jwt.InvalidAudienceError
		require.ErrorAs(t, err, &audErr)
	})
}

func TestCognitoVerifier_IdToken(t *testing.T) {
	verifier, sign := newCognitoVerifier(t, WithTokenUse("id"))

	t.Run("the configured client ID matches the id token's aud", func(t *testing.T) {
		// Cognito id tokens carry the client in aud, not client_id.
		payload, err := verifier.VerifySync(sign(map[string]any{
			"iss":       testPoolIssuer,
			"aud":       testClientID,
			"token_use": "id",
			"exp":       time.Now().Unix() + 60,
		}))
		require.NoError(t, err)
		assert.Equal(t, jwt.AudienceList{testClientID}, payload.Audience)
	})

	t.Run("an id token for another client is rejected", func(t *testing.T) {
		_, err := verifier.VerifySync(sign(map[string]any{
			"iss":       testPoolIssuer,
			"aud":       "someone-else",
			"token_use": "id",
			"exp":       time.Now().Unix() + 60,
		}))

		var audErr *jwt.InvalidAudienceError
		require.ErrorAs(t, err, &audErr)
	})
}

func TestCognitoVerifier_AlgorithmDefaults(t *testing.T) {
	// Cognito only ever signs RS256; other algorithms are rejected even
	// with a matching key.
	verifier, _ := newCognitoVerifier(t)

	priv, pub := newECKeyPair(t, "ec1")
	set, err := jwks.ParseJwks(marshalJwks(t, pub))
	require.NoError(t, err)
	require.NoError(t, verifier.CacheJwks(set, ""))

	token := signToken(t, jwa.ES256, priv, "ec1", map[string]any{
		"iss":       testPoolIssuer,
		"client_id": testClientID,
		"exp":       time.Now().Unix() + 60,
	}, nil)

	_, err = verifier.Verify(context.Background(), token)
	var sigErr *signature.InvalidSignatureError
	require.ErrorAs(t, err, &sigErr)
}

func TestCognitoVerifier_Construction(t *testing.T) {
	t.Run("the user pool ID is required", func(t *testing.T) {
		_, err := NewCognitoVerifier(WithClientID(testClientID))
		require.Error(t, err)
	})

	t.Run("a malformed user pool ID is rejected", func(t *testing.T) {
		_, err := NewCognitoVerifier(WithUserPoolID("not-a-pool-id"))
		require.Error(t, err)
	})

	t.Run("an undecided client ID fails at verification time", func(t *testing.T) {
		verifier, err := NewCognitoVerifier(WithUserPoolID(testUserPoolID))
		require.NoError(t, err)

		priv, pub := newRSAKeyPair(t, "cog1")
		set, err := jwks.ParseJwks(marshalJwks(t, pub))
		require.NoError(t, err)
		require.NoError(t, verifier.CacheJwks(set, ""))

		token := signToken(t, jwa.RS256, priv, "cog1", map[string]any{
			"iss": testPoolIssuer,
			"exp": time.Now().Unix() + 60,
		}, nil)

		_, err = verifier.VerifySync(token)
		var paramErr *ParameterError
		require.ErrorAs(t, err, &paramErr)
	})

	t.Run("the client ID check can be disabled explicitly", func(t *testing.T) {
		priv, pub := newRSAKeyPair(t, "cog1")
		verifier, err := NewCognitoVerifier(
			WithUserPoolID(testUserPoolID),
			WithoutClientID(),
		)
		require.NoError(t, err)

		set, err := jwks.ParseJwks(marshalJwks(t, pub))
		require.NoError(t, err)
		require.NoError(t, verifier.CacheJwks(set, ""))

		_, err = verifier.VerifySync(signToken(t, jwa.RS256, priv, "cog1", map[string]any{
			"iss": testPoolIssuer,
			"exp": time.Now().Unix() + 60,
		}, nil))
		require.NoError(t, err)
	})
}

func cloneClaims(claims map[string]any) map[string]any {
	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out
}
