package signature

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/cloudflare/circl/sign/ed448"

	"github.com/awsauth/go-jwt-verify/jwks"
)

func verifyEdDSA(key *jwks.Jwk, signedInput, sig []byte) error {
	if key.X == "" {
		return errInvalid("OKP key is missing x")
	}
	publicKey, err := base64.RawURLEncoding.DecodeString(key.X)
	if err != nil {
		return errInvalid("OKP public key is not valid base64url")
	}

	switch key.Crv {
	case "Ed25519":
		if len(publicKey) != ed25519.PublicKeySize {
			return errInvalid("Ed25519 public key has wrong length")
		}
		if len(sig) != ed25519.SignatureSize {
			return errInvalid("Ed25519 signature has wrong length")
		}
		if !ed25519.Verify(ed25519.PublicKey(publicKey), signedInput, sig) {
			return errInvalid("Ed25519 verification failed")
		}
		return nil
	case "Ed448":
		if len(publicKey) != ed448.PublicKeySize {
			return errInvalid("Ed448 public key has wrong length")
		}
		if len(sig) != ed448.SignatureSize {
			return errInvalid("Ed448 signature has wrong length")
		}
		if !ed448.Verify(ed448.PublicKey(publicKey), signedInput, sig, "") {
			return errInvalid("Ed448 verification failed")
		}
		return nil
	default:
		return errInvalid("unsupported OKP curve " + key.Crv)
	}
}
