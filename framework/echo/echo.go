// Package jwtecho adapts the verifier to echo.
package jwtecho

import (
	"net/http"

	"github.com/labstack/echo/v4"

	jwtverify "github.com/awsauth/go-jwt-verify"
	"github.com/awsauth/go-jwt-verify/jwt"
)

// DefaultPayloadKey is the echo context key the verified payload is stored
// under.
const DefaultPayloadKey = "jwt"

// NewMiddleware returns an echo middleware that verifies the request's JWT
// with the given verifier and stores the payload in the echo context.
//
// Example:
//
//	e := echo.New()
//	e.Use(jwtecho.NewMiddleware(verifier))
func NewMiddleware(verifier jwtverify.TokenVerifier, opts ...Option) echo.MiddlewareFunc {
	config := &middlewareConfig{
		errorHandler: defaultErrorHandler,
		payloadKey:   DefaultPayloadKey,
		extractor:    jwtverify.AuthHeaderTokenExtractor,
	}
	for _, opt := range opts {
		opt(config)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := config.extractor(c.Request())
			if err != nil {
				return config.errorHandler(c, err)
			}
			if token == "" {
				return config.errorHandler(c, jwtverify.ErrJWTMissing)
			}

			payload, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				return config.errorHandler(c, err)
			}

			c.Set(config.payloadKey, payload)
			c.SetRequest(c.Request().Clone(jwtverify.SetPayload(c.Request().Context(), payload)))
			return next(c)
		}
	}
}

// GetPayload retrieves the verified payload from the echo context.
func GetPayload(c echo.Context, payloadKey string) (*jwt.Payload, bool) {
	if payloadKey == "" {
		payloadKey = DefaultPayloadKey
	}
	payload, ok := c.Get(payloadKey).(*jwt.Payload)
	return payload, ok
}

func defaultErrorHandler(c echo.Context, err error) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"message": err.Error(),
	})
}
