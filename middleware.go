package jwtverify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/awsauth/go-jwt-verify/jwt"
)

// ContextKey is the key the middleware stores the verified payload under
// in the request context.
type ContextKey struct{}

// Middleware authenticates HTTP requests by verifying a bearer JWT with a
// TokenVerifier and placing the verified payload in the request context.
type Middleware struct {
	verifier            TokenVerifier
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	credentialsOptional bool
	validateOnOptions   bool
	logger              Logger
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(*Middleware) error

// WithErrorHandler sets a custom error handler for the middleware.
func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(m *Middleware) error {
		if h == nil {
			return fmt.Errorf("error handler cannot be nil")
		}
		m.errorHandler = h
		return nil
	}
}

// WithTokenExtractor sets how the JWT is pulled off the request. Defaults
// to the Authorization header.
func WithTokenExtractor(e TokenExtractor) MiddlewareOption {
	return func(m *Middleware) error {
		if e == nil {
			return fmt.Errorf("token extractor cannot be nil")
		}
		m.tokenExtractor = e
		return nil
	}
}

// WithCredentialsOptional lets requests without any token through,
// unauthenticated. Requests carrying an invalid token are still rejected.
func WithCredentialsOptional(optional bool) MiddlewareOption {
	return func(m *Middleware) error {
		m.credentialsOptional = optional
		return nil
	}
}

// WithValidateOnOptions controls whether OPTIONS requests are validated.
// They are by default.
func WithValidateOnOptions(validate bool) MiddlewareOption {
	return func(m *Middleware) error {
		m.validateOnOptions = validate
		return nil
	}
}

// WithMiddlewareLogger attaches a logger to the middleware.
func WithMiddlewareLogger(l Logger) MiddlewareOption {
	return func(m *Middleware) error {
		m.logger = l
		return nil
	}
}

// NewMiddleware builds a Middleware around a verifier.
//
// Example:
//
//	mw, err := jwtverify.NewMiddleware(verifier)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.Handle("/api/", mw.CheckJWT(apiHandler))
func NewMiddleware(verifier TokenVerifier, opts ...MiddlewareOption) (*Middleware, error) {
	if verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	m := &Middleware{
		verifier:          verifier,
		errorHandler:      DefaultErrorHandler,
		tokenExtractor:    AuthHeaderTokenExtractor,
		validateOnOptions: true,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	return m, nil
}

// CheckJWT wraps next with JWT verification. On success the verified
// payload is stored in the request context; retrieve it with PayloadFromContext.
func (m *Middleware) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.validateOnOptions && r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.tokenExtractor(r)
		if err != nil {
			// Not ErrJWTMissing: the extractor found credentials it
			// could not make sense of.
			if m.logger != nil {
				m.logger.Errorf("failed to extract token from request: %s", err)
			}
			m.errorHandler(w, r, fmt.Errorf("error extracting token: %w", err))
			return
		}

		if token == "" {
			if m.credentialsOptional {
				next.ServeHTTP(w, r)
				return
			}
			m.errorHandler(w, r, ErrJWTMissing)
			return
		}

		payload, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			if m.logger != nil {
				m.logger.Warnf("JWT verification failed: %s", err)
			}
			m.errorHandler(w, r, invalidError{details: err})
			return
		}

		r = r.Clone(SetPayload(r.Context(), payload))
		next.ServeHTTP(w, r)
	})
}

// SetPayload stores a verified payload in the context.
func SetPayload(ctx context.Context, payload *jwt.Payload) context.Context {
	return context.WithValue(ctx, ContextKey{}, payload)
}

// PayloadFromContext retrieves the verified payload stored by the
// middleware, if any.
func PayloadFromContext(ctx context.Context) (*jwt.Payload, bool) {
	payload, ok := ctx.Value(ContextKey{}).(*jwt.Payload)
	return payload, ok
}
