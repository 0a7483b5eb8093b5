package signature

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"math/big"
	"testing"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awsauth/go-jwt-verify/jwks"
)

var signedInput = []byte("eyJhbGciOiJSUzI1NiJ9.eyJpc3MiOiJ0ZXN0In0")

func rsaJwk(t *testing.T, pub *rsa.PublicKey, alg string) *jwks.Jwk {
	t.Helper()
	return &jwks.Jwk{
		Kty: jwks.KeyTypeRSA,
		Kid: "rsa1",
		Alg: alg,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

func ecJwk(t *testing.T, pub *ecdsa.PublicKey, crv string) *jwks.Jwk {
	t.Helper()
	size := (pub.Curve.Params().BitSize + 7) / 8
	x := make([]byte, size)
	y := make([]byte, size)
	pub.X.FillBytes(x)
	pub.Y.FillBytes(y)
	return &jwks.Jwk{
		Kty: jwks.KeyTypeEC,
		Kid: "ec1",
		Crv: crv,
		X:   base64.RawURLEncoding.EncodeToString(x),
		Y:   base64.RawURLEncoding.EncodeToString(y),
	}
}

func rawECDSASignature(t *testing.T, priv *ecdsa.PrivateKey, input []byte) []byte {
	t.Helper()
	sum := sha256.Sum256(input)
	r, s, err := ecdsa.Sign(rand.Reader, priv, sum[:])
	require.NoError(t, err)

	size := (priv.Curve.Params().BitSize + 7) / 8
	sig := make([]byte, 2*size)
	r.FillBytes(sig[:size])
	s.FillBytes(sig[size:])
	return sig
}

func TestVerify_RSA(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	sum := sha256.Sum256(signedInput)
	pkcs1Sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, sum[:])
	require.NoError(t, err)
	pssSig, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA256, sum[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	require.NoError(t, err)

	t.Run("RS256 verifies a PKCS#1 v1.5 signature", func(t *testing.T) {
		require.NoError(t, Verify(RS256, rsaJwk(t, &priv.PublicKey, ""), signedInput, pkcs1Sig))
	})

	t.Run("PS256 verifies a PSS signature", func(t *testing.T) {
		require.NoError(t, Verify(PS256, rsaJwk(t, &priv.PublicKey, ""), signedInput, pssSig))
	})

	t.Run("it rejects a signature over different input", func(t *testing.T) {
		err := Verify(RS256, rsaJwk(t, &priv.PublicKey, ""), []byte("tampered"), pkcs1Sig)

		var sigErr *InvalidSignatureError
		require.ErrorAs(t, err, &sigErr)
	})

	t.Run("it rejects a PKCS#1 signature presented as PSS", func(t *testing.T) {
		var sigErr *InvalidSignatureError
		require.ErrorAs(t, Verify(PS256, rsaJwk(t, &priv.PublicKey, ""), signedInput, pkcs1Sig), &sigErr)
	})

	t.Run("it pins the algorithm declared by the key", func(t *testing.T) {
		// The key says RS256; a token claiming RS512 must fail even
		// before any cryptography runs.
		key := rsaJwk(t, &priv.PublicKey, RS256)

		var sigErr *InvalidSignatureError
		require.ErrorAs(t, Verify(RS512, key, signedInput, pkcs1Sig), &sigErr)
	})

	t.Run("it rejects keys with missing material", func(t *testing.T) {
		key := rsaJwk(t, &priv.PublicKey, "")
		key.N = ""

		var sigErr *InvalidSignatureError
		require.ErrorAs(t, Verify(RS256, key, signedInput, pkcs1Sig), &sigErr)
	})

	t.Run("it rejects a small modulus", func(t *testing.T) {
		weak, err := rsa.GenerateKey(rand.Reader, 1024)
		require.NoError(t, err)

		var sigErr *InvalidSignatureError
		require.ErrorAs(t, Verify(RS256, rsaJwk(t, &weak.PublicKey, ""), signedInput, pkcs1Sig), &sigErr)
	})
}

func TestVerify_ECDSA(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	key := ecJwk(t, &priv.PublicKey, "P-256")

	t.Run("ES256 verifies a raw r||s signature", func(t *testing.T) {
		sig := rawECDSASignature(t, priv, signedInput)
		require.Len(t, sig, 64)
		require.NoError(t, Verify(ES256, key, signedInput, sig))
	})

	t.Run("ES256 accepts a DER encoded signature", func(t *testing.T) {
		sum := sha256.Sum256(signedInput)
		derSig, err := ecdsa.SignASN1(rand.Reader, priv, sum[:])
		require.NoError(t, err)

		require.NoError(t, Verify(ES256, key, signedInput, derSig))
	})

	t.Run("a short raw signature splits at the midpoint", func(t *testing.T) {
		// Both components at 31 bytes: the leading zero byte of each
		// was dropped and must be restored independently.
		rBytes := bytes.Repeat([]byte{0x11}, 31)
		sBytes := bytes.Repeat([]byte{0x22}, 31)

		r, s, err := ecdsaSignatureComponents(append(rBytes, sBytes...), 32)
		require.NoError(t, err)
		assert.Equal(t, new(big.Int).SetBytes(rBytes), r)
		assert.Equal(t, new(big.Int).SetBytes(sBytes), s)
	})

	t.Run("it rejects an odd-length raw signature", func(t *testing.T) {
		sig := rawECDSASignature(t, priv, signedInput)

		var sigErr *InvalidSignatureError
		require.ErrorAs(t, Verify(ES256, key, signedInput, sig[1:]), &sigErr)
	})

	t.Run("it rejects a tampered signature", func(t *testing.T) {
		sig := rawECDSASignature(t, priv, signedInput)
		sig[10] ^= 0xff

		var sigErr *InvalidSignatureError
		require.ErrorAs(t, Verify(ES256, key, signedInput, sig), &sigErr)
	})

	t.Run("it rejects malformed DER", func(t *testing.T) {
		var sigErr *InvalidSignatureError
		require.ErrorAs(t, Verify(ES256, key, signedInput, []byte{0x30, 0x05, 0x01}), &sigErr)
	})

	t.Run("it rejects an overlong signature", func(t *testing.T) {
		sig := make([]byte, 65)
		var sigErr *InvalidSignatureError
		require.ErrorAs(t, Verify(ES256, key, signedInput, sig), &sigErr)
	})

	t.Run("it rejects a key on the wrong curve for the algorithm", func(t *testing.T) {
		sig := rawECDSASignature(t, priv, signedInput)

		var sigErr *InvalidSignatureError
		require.ErrorAs(t, Verify(ES384, key, signedInput, sig), &sigErr)
	})

	t.Run("it rejects a point off the curve", func(t *testing.T) {
		bogus := *key
		bogus.X = base64.RawURLEncoding.EncodeToString(make([]byte, 32))

		sig := rawECDSASignature(t, priv, signedInput)
		var sigErr *InvalidSignatureError
		require.ErrorAs(t, Verify(ES256, &bogus, signedInput, sig), &sigErr)
	})
}

func TestVerify_ECDSA_P384(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)

	sum := sha512.Sum384(signedInput)
	r, s, err := ecdsa.Sign(rand.Reader, priv, sum[:])
	require.NoError(t, err)

	sig := make([]byte, 96)
	r.FillBytes(sig[:48])
	s.FillBytes(sig[48:])

	require.NoError(t, Verify(ES384, ecJwk(t, &priv.PublicKey, "P-384"), signedInput, sig))
}

func TestVerify_EdDSA(t *testing.T) {
	t.Run("Ed25519", func(t *testing.T) {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		key := &jwks.Jwk{
			Kty: jwks.KeyTypeOKP,
			Kid: "ed1",
			Crv: "Ed25519",
			X:   base64.RawURLEncoding.EncodeToString(pub),
		}
		sig := ed25519.Sign(priv, signedInput)

		require.NoError(t, Verify(EdDSA, key, signedInput, sig))

		sig[0] ^= 0xff
		var sigErr *InvalidSignatureError
		require.ErrorAs(t, Verify(EdDSA, key, signedInput, sig), &sigErr)
	})

	t.Run("Ed448", func(t *testing.T) {
		pub, priv, err := ed448.GenerateKey(rand.Reader)
		require.NoError(t, err)

		key := &jwks.Jwk{
			Kty: jwks.KeyTypeOKP,
			Kid: "ed2",
			Crv: "Ed448",
			X:   base64.RawURLEncoding.EncodeToString(pub),
		}
		sig := ed448.Sign(priv, signedInput, "")

		require.NoError(t, Verify(EdDSA, key, signedInput, sig))
	})

	t.Run("it rejects a truncated Ed25519 signature", func(t *testing.T) {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		key := &jwks.Jwk{Kty: jwks.KeyTypeOKP, Crv: "Ed25519", X: base64.RawURLEncoding.EncodeToString(pub)}
		sig := ed25519.Sign(priv, signedInput)

		var sigErr *InvalidSignatureError
		require.ErrorAs(t, Verify(EdDSA, key, signedInput, sig[:32]), &sigErr)
	})
}

func TestVerify_Dispatch(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	key := rsaJwk(t, &priv.PublicKey, "")

	t.Run("it rejects an unknown algorithm", func(t *testing.T) {
		var sigErr *InvalidSignatureError
		require.ErrorAs(t, Verify("HS256", key, signedInput, nil), &sigErr)
	})

	t.Run("it rejects a key family mismatch", func(t *testing.T) {
		var sigErr *InvalidSignatureError
		require.ErrorAs(t, Verify(ES256, key, signedInput, nil), &sigErr)
	})

	t.Run("Supported", func(t *testing.T) {
		assert.True(t, Supported(RS256))
		assert.True(t, Supported(EdDSA))
		assert.False(t, Supported("HS256"))
		assert.False(t, Supported("none"))
	})
}
