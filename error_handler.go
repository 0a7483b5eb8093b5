package jwtverify

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/awsauth/go-jwt-verify/jwt"
	"github.com/awsauth/go-jwt-verify/signature"
)

// ErrorHandler writes the HTTP response when the middleware rejects a
// request. The error is ErrJWTMissing when no token was presented and
// matches ErrJWTInvalid (with the verifier's typed error underneath, for
// errors.As) when verification failed. Custom handlers should branch on
// those two; anything else is an internal failure.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler responds in the style of RFC 6750: a JSON body with
// error and error_description members, 400 for a missing token, 401 plus a
// WWW-Authenticate challenge for a rejected one, and 500 otherwise. The
// description states the kind of failure (expired, bad signature, claim
// mismatch) but never echoes token contents.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrJWTMissing):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "no token was provided")
	case errors.Is(err, ErrJWTInvalid):
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		writeJSONError(w, http.StatusUnauthorized, "invalid_token", rejectionDescription(err))
	default:
		writeJSONError(w, http.StatusInternalServerError, "server_error", "token verification failed unexpectedly")
	}
}

// rejectionDescription names the kind of verification failure without
// leaking claim values or key material into the response.
func rejectionDescription(err error) string {
	var (
		expired   *jwt.ExpiredError
		notBefore *jwt.NotBeforeError
		sigErr    *signature.InvalidSignatureError
		claimErr  jwt.ClaimError
	)
	switch {
	case errors.As(err, &expired):
		return "the token has expired"
	case errors.As(err, &notBefore):
		return "the token is not yet valid"
	case errors.As(err, &sigErr):
		return "the token signature could not be verified"
	case errors.As(err, &claimErr):
		return "a token claim did not match the expected value"
	default:
		return "the token could not be verified"
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body, _ := json.Marshal(map[string]string{
		"error":             code,
		"error_description": description,
	})
	_, _ = w.Write(body)
}
