package jwtecho

import (
	"github.com/labstack/echo/v4"

	jwtverify "github.com/awsauth/go-jwt-verify"
)

type middlewareConfig struct {
	errorHandler func(echo.Context, error) error
	payloadKey   string
	extractor    jwtverify.TokenExtractor
}

// Option defines a functional option for configuring the middleware.
type Option func(*middlewareConfig)

// WithErrorHandler sets a custom error handler for the middleware.
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(config *middlewareConfig) {
		if handler != nil {
			config.errorHandler = handler
		}
	}
}

// WithPayloadKey sets the echo context key for the verified payload.
func WithPayloadKey(key string) Option {
	return func(config *middlewareConfig) {
		if key != "" {
			config.payloadKey = key
		}
	}
}

// WithTokenExtractor sets how the JWT is pulled off the request.
func WithTokenExtractor(extractor jwtverify.TokenExtractor) Option {
	return func(config *middlewareConfig) {
		if extractor != nil {
			config.extractor = extractor
		}
	}
}
