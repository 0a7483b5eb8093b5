package jwtverify

import (
	"errors"
	"net/http"
	"strings"
)

// TokenExtractor pulls a serialized JWT off an incoming request. A missing
// token is not an error: return "" and let the middleware decide whether
// credentials are optional. Return an error only when credentials were
// present but unusable, e.g. a malformed Authorization header.
type TokenExtractor func(r *http.Request) (string, error)

var errMalformedAuthHeader = errors.New(`Authorization header must be of the form "Bearer <token>"`)

// AuthHeaderTokenExtractor reads the bearer token from the Authorization
// header. The scheme is matched case-insensitively per RFC 6750.
func AuthHeaderTokenExtractor(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", nil
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", errMalformedAuthHeader
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsRune(token, ' ') {
		return "", errMalformedAuthHeader
	}
	return token, nil
}

// AlbHeaderTokenExtractor reads the token an AWS Application Load Balancer
// forwards to its targets in the x-amzn-oidc-data header after it has
// authenticated the user. Pair it with an AlbVerifier.
func AlbHeaderTokenExtractor(r *http.Request) (string, error) {
	return r.Header.Get("X-Amzn-Oidc-Data"), nil
}

// CookieTokenExtractor reads the token from the named cookie. Useful for
// browser clients that hold the JWT in an HttpOnly session cookie instead
// of a header.
func CookieTokenExtractor(name string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(name)
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		return cookie.Value, nil
	}
}

// ParameterTokenExtractor reads the token from a query string parameter.
// Query parameters end up in access logs; prefer the Authorization header
// where the client allows it.
func ParameterTokenExtractor(param string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		return r.URL.Query().Get(param), nil
	}
}

// MultiTokenExtractor tries each extractor in order and returns the first
// token found. An extractor error stops the chain immediately.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, extract := range extractors {
			token, err := extract(r)
			switch {
			case err != nil:
				return "", err
			case token != "":
				return token, nil
			}
		}
		return "", nil
	}
}
