package jwtgin

import (
	"github.com/gin-gonic/gin"

	jwtverify "github.com/awsauth/go-jwt-verify"
)

type middlewareConfig struct {
	errorHandler func(*gin.Context, error)
	payloadKey   string
	extractor    jwtverify.TokenExtractor
}

// Option defines a functional option for configuring the middleware.
type Option func(*middlewareConfig)

// WithErrorHandler sets a custom error handler for the middleware.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(config *middlewareConfig) {
		if handler != nil {
			config.errorHandler = handler
		}
	}
}

// WithPayloadKey sets the gin context key for the verified payload.
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
