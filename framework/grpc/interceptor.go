// Package jwtgrpc provides gRPC server interceptors that authenticate
// requests by verifying a bearer JWT from the request metadata.
package jwtgrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	jwtverify "github.com/awsauth/go-jwt-verify"
	"github.com/awsauth/go-jwt-verify/jwt"
)

type payloadContextKey struct{}

// Interceptor verifies JWTs on incoming gRPC requests.
type Interceptor struct {
	verifier        jwtverify.TokenVerifier
	tokenExtractor  TokenExtractor
	errorHandler    ErrorHandler
	excludedMethods map[string]bool
}

// ErrorHandler converts a verification failure into the gRPC error the
// client receives.
type ErrorHandler func(err error) error

// DefaultErrorHandler maps missing tokens and failed verifications to
// codes.Unauthenticated.
func DefaultErrorHandler(err error) error {
	return status.Error(codes.Unauthenticated, err.Error())
}

// New creates an Interceptor around the given verifier.
//
// Example:
//
//	interceptor, err := jwtgrpc.New(verifier)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
//	    grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
//	)
func New(verifier jwtverify.TokenVerifier, opts ...Option) (*Interceptor, error) {
	if verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	i := &Interceptor{
		verifier:        verifier,
		tokenExtractor:  MetadataTokenExtractor,
		errorHandler:    DefaultErrorHandler,
		excludedMethods: make(map[string]bool),
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	return i, nil
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that
// verifies JWTs and makes the payload available in the handler context.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if i.excludedMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		verifiedCtx, err := i.authenticate(ctx)
		if err != nil {
			return nil, err
		}
		return handler(verifiedCtx, req)
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that
// verifies JWTs and makes the payload available in the stream context.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if i.excludedMethods[info.FullMethod] {
			return handler(srv, ss)
		}
		verifiedCtx, err := i.authenticate(ss.Context())
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: verifiedCtx})
	}
}

func (i *Interceptor) authenticate(ctx context.Context) (context.Context, error) {
	token, err := i.tokenExtractor(ctx)
	if err != nil {
		return ctx, i.errorHandler(err)
	}
	if token == "" {
		return ctx, i.errorHandler(jwtverify.ErrJWTMissing)
	}

	payload, err := i.verifier.Verify(ctx, token)
	if err != nil {
		return ctx, i.errorHandler(err)
	}
	return context.WithValue(ctx, payloadContextKey{}, payload), nil
}

// PayloadFromContext retrieves the verified payload stored by the
// interceptor, if any.
func PayloadFromContext(ctx context.Context) (*jwt.Payload, bool) {
	payload, ok := ctx.Value(payloadContextKey{}).(*jwt.Payload)
	return payload, ok
}

// wrappedServerStream overrides the stream's context with the
// authenticated one.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
