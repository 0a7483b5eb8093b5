// Package jwtgin adapts the verifier to gin.
package jwtgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	jwtverify "github.com/awsauth/go-jwt-verify"
	"github.com/awsauth/go-jwt-verify/jwt"
)

// DefaultPayloadKey is the gin context key the verified payload is stored
// under.
const DefaultPayloadKey = "jwt"

// NewMiddleware returns a gin middleware that verifies the request's JWT
// with the given verifier and stores the payload in the gin context.
//
// Example:
//
//	router := gin.Default()
//	router.Use(jwtgin.NewMiddleware(verifier))
func NewMiddleware(verifier jwtverify.TokenVerifier, opts ...Option) gin.HandlerFunc {
	config := &middlewareConfig{
		errorHandler: defaultErrorHandler,
		payloadKey:   DefaultPayloadKey,
		extractor:    jwtverify.AuthHeaderTokenExtractor,
	}
	for _, opt := range opts {
		opt(config)
	}

	return func(c *gin.Context) {
		token, err := config.extractor(c.Request)
		if err != nil {
			config.errorHandler(c, err)
			c.Abort()
			return
		}
		if token == "" {
			config.errorHandler(c, jwtverify.ErrJWTMissing)
			c.Abort()
			return
		}

		payload, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			config.errorHandler(c, err)
			c.Abort()
			return
		}

		c.Set(config.payloadKey, payload)
		c.Request = c.Request.Clone(jwtverify.SetPayload(c.Request.Context(), payload))
		c.Next()
	}
}

// GetPayload retrieves the verified payload from the gin context.
func GetPayload(c *gin.Context, payloadKey string) (*jwt.Payload, bool) {
	if payloadKey == "" {
		payloadKey = DefaultPayloadKey
	}
	value, exists := c.Get(payloadKey)
	if !exists {
		return nil, false
	}
	payload, ok := value.(*jwt.Payload)
	return payload, ok
}

func defaultErrorHandler(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": err.Error(),
	})
}
