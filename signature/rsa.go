package signature

import (
	"crypto"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"strings"

	"github.com/awsauth/go-jwt-verify/jwks"
)

// minRSABits rejects keys too small to be safe against factoring.
const minRSABits = 2048

func verifyRSA(alg string, hash crypto.Hash, key *jwks.Jwk, signedInput, sig []byte) error {
	publicKey, err := rsaPublicKey(key)
	if err != nil {
		return err
	}

	h := hash.New()
	h.Write(signedInput)
	hashed := h.Sum(nil)

	if strings.HasPrefix(alg, "PS") {
		opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: hash}
		if err := rsa.VerifyPSS(publicKey, hash, hashed, sig, opts); err != nil {
			return errInvalid("RSASSA-PSS verification failed")
		}
		return nil
	}

	if err := rsa.VerifyPKCS1v15(publicKey, hash, hashed, sig); err != nil {
		return errInvalid("RSASSA-PKCS1-v1_5 verification failed")
	}
	return nil
}

// rsaPublicKey assembles an *rsa.PublicKey from the JWK's modulus and
// exponent.
func rsaPublicKey(key *jwks.Jwk) (*rsa.PublicKey, error) {
	if key.N == "" || key.E == "" {
		return nil, errInvalid("RSA key is missing n or e")
	}
	nBytes, err := base64.RawURLEncoding.DecodeString(key.N)
	if err != nil {
		return nil, errInvalid("RSA modulus is not valid base64url")
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(key.E)
	if err != nil {
		return nil, errInvalid("RSA exponent is not valid base64url")
	}
	if len(eBytes) == 0 || len(eBytes) > 8 {
		return nil, errInvalid("RSA exponent has invalid length")
	}

	n := new(big.Int).SetBytes(nBytes)
	if n.BitLen() < minRSABits {
		return nil, errInvalid("RSA modulus is too small")
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	if e < 3 {
		return nil, errInvalid("RSA exponent is too small")
	}

	return &rsa.PublicKey{N: n, E: e}, nil
}
