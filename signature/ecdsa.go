package signature

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/asn1"
	"encoding/base64"
	"math/big"

	"github.com/awsauth/go-jwt-verify/jwks"
)

var curves = map[string]elliptic.Curve{
	"P-256": elliptic.P256(),
	"P-384": elliptic.P384(),
	"P-521": elliptic.P521(),
}

// componentSize returns the byte length of each of r and s for the curve.
func componentSize(curve elliptic.Curve) int {
	return (curve.Params().BitSize + 7) / 8
}

func verifyECDSA(crv string, hash crypto.Hash, key *jwks.Jwk, signedInput, sig []byte) error {
	if key.Crv != crv {
		return errInvalid("key curve " + key.Crv + " does not match the algorithm's curve " + crv)
	}
	publicKey, err := ecdsaPublicKey(key)
	if err != nil {
		return err
	}

	keySize := componentSize(publicKey.Curve)
	r, s, err := ecdsaSignatureComponents(sig, keySize)
	if err != nil {
		return err
	}

	h := hash.New()
	h.Write(signedInput)
	if !ecdsa.Verify(publicKey, h.Sum(nil), r, s) {
		return errInvalid("ECDSA verification failed")
	}
	return nil
}

// ecdsaSignatureComponents extracts r and s from a JWS ECDSA signature.
// The canonical form is raw r‖s with both components padded to the curve
// size, but DER-encoded signatures and raw signatures whose components
// dropped their leading zero bytes are accepted and normalized too.
func ecdsaSignatureComponents(sig []byte, keySize int) (r, s *big.Int, err error) {
	if len(sig) == 0 {
		return nil, nil, errInvalid("ECDSA signature is empty")
	}

	if sig[0] == 0x30 && len(sig) != 2*keySize {
		var parsed struct {
			R, S *big.Int
		}
		rest, err := asn1.Unmarshal(sig, &parsed)
		if err != nil || len(rest) != 0 || parsed.R == nil || parsed.S == nil {
			return nil, nil, errInvalid("ECDSA signature has malformed DER encoding")
		}
		return parsed.R, parsed.S, nil
	}

	if len(sig) > 2*keySize || len(sig)%2 != 0 {
		return nil, nil, errInvalid("ECDSA signature has unexpected length")
	}

	// A shorter-than-expected raw signature carries r and s at the same
	// reduced width, each with its leading zero bytes dropped. Split at
	// the midpoint and left-pad the components independently, which
	// SetBytes does implicitly.
	half := len(sig) / 2
	r = new(big.Int).SetBytes(sig[:half])
	s = new(big.Int).SetBytes(sig[half:])
	return r, s, nil
}

// ecdsaPublicKey assembles an *ecdsa.PublicKey from the JWK's curve point.
func ecdsaPublicKey(key *jwks.Jwk) (*ecdsa.PublicKey, error) {
	curve, ok := curves[key.Crv]
	if !ok {
		return nil, errInvalid("unsupported curve " + key.Crv)
	}
	if key.X == "" || key.Y == "" {
		return nil, errInvalid("EC key is missing x or y")
	}
	xBytes, err := base64.RawURLEncoding.DecodeString(key.X)
	if err != nil {
		return nil, errInvalid("EC x coordinate is not valid base64url")
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(key.Y)
	if err != nil {
		return nil, errInvalid("EC y coordinate is not valid base64url")
	}

	publicKey := &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}
	if !publicKey.Curve.IsOnCurve(publicKey.X, publicKey.Y) {
		return nil, errInvalid("EC point is not on the curve")
	}
	return publicKey, nil
}
