package jwtverify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/awsauth/go-jwt-verify/jwks"
	"github.com/awsauth/go-jwt-verify/jwt"
	"github.com/awsauth/go-jwt-verify/signature"
)

type verifierKind int

const (
	kindGeneric verifierKind = iota
	kindCognito
	kindALB
)

// TokenVerifier is the surface the middleware and framework adapters
// consume. *Verifier, *CognitoVerifier and *AlbVerifier implement it.
type TokenVerifier interface {
	Verify(ctx context.Context, token string, overrides ...VerifyOption) (*jwt.Payload, error)
}

// Verifier verifies JWTs against one issuer, or several with routing on
// the token's iss claim. Create it once and reuse it: the JWKS cache and
// its penalty box live as long as the verifier.
type Verifier struct {
	kind     verifierKind
	configs  []*IssuerConfig
	byIssuer map[string][]*IssuerConfig

	cache   jwks.Cache
	logger  Logger
	metrics Metrics
	tracer  Tracer
	now     func() time.Time

	// postSignatureCheck runs between signature verification and the
	// custom check; the ALB verifier uses it for its header checks.
	postSignatureCheck func(cfg *IssuerConfig, d *jwt.DecomposedJwt) error
}

// New builds a verifier for a single JWKS-publishing issuer.
//
// Required options:
//   - WithIssuer
//   - WithAudience, WithClientID, or WithoutAudience — the expectation may
//     alternatively be supplied per call via OverrideAudience/OverrideClientID
//
// Example:
//
//	verifier, err := jwtverify.New(
//	    jwtverify.WithIssuer("https://issuer.example"),
//	    jwtverify.WithAudience("https://api.example"),
//	)
func New(opts ...Option) (*Verifier, error) {
	return newVerifier(kindGeneric, nil, opts)
}

// NewMulti builds a verifier over several issuers. Tokens are routed by
// their iss claim; issuers listed more than once are disambiguated by the
// token's aud or client_id, so each config sharing an issuer must pin an
// audience or client ID and these must not overlap.
//
// Options apply to the shared seams (cache, logger, metrics, tracer,
// clock); per-issuer expectations belong in the IssuerConfigs.
func NewMulti(configs []IssuerConfig, opts ...Option) (*Verifier, error) {
	if len(configs) == 0 {
		return nil, newParameterError("at least one issuer config is required")
	}
	return newVerifier(kindGeneric, configs, opts)
}

func newVerifier(kind verifierKind, multi []IssuerConfig, opts []Option) (*Verifier, error) {
	cfg := &config{now: time.Now}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	v := &Verifier{
		kind:     kind,
		byIssuer: make(map[string][]*IssuerConfig),
		logger:   cfg.logger,
		metrics:  cfg.metrics,
		tracer:   cfg.tracer,
		now:      cfg.now,
	}
	if v.metrics == nil {
		v.metrics = &NoopMetrics{}
	}
	if v.tracer == nil {
		v.tracer = &NoopTracer{}
	}

	if multi == nil {
		if cfg.issuer.Issuer == "" {
			return nil, newParameterError("issuer is required")
		}
		v.configs = []*IssuerConfig{&cfg.issuer}
	} else {
		for i := range multi {
			ic := multi[i]
			if ic.Issuer == "" {
				return nil, newParameterError(fmt.Sprintf("issuer config at index %d has no issuer", i))
			}
			v.configs = append(v.configs, &ic)
		}
		if err := checkIssuerRouting(v.configs); err != nil {
			return nil, err
		}
	}
	for _, ic := range v.configs {
		v.byIssuer[ic.Issuer] = append(v.byIssuer[ic.Issuer], ic)
	}

	v.cache = cfg.cache
	if v.cache == nil {
		v.cache = v.buildDefaultCache(cfg)
	}
	return v, nil
}

// buildDefaultCache assembles a SimpleJwksCache wired to the verifier's
// logger and metrics.
func (v *Verifier) buildDefaultCache(cfg *config) jwks.Cache {
	fetcher := cfg.fetcher
	if fetcher == nil {
		var fetcherOpts []jwks.FetcherOption
		if cfg.httpClient != nil {
			fetcherOpts = append(fetcherOpts, jwks.WithHTTPClient(cfg.httpClient))
		}
		fetcher = jwks.NewSimpleFetcher(fetcherOpts...)
	}

	cacheOpts := []jwks.CacheOption{
		jwks.WithFetcher(fetcher),
		jwks.WithEvents(jwks.Events{
			OnFetchCompleted: func(uri string, err error) {
				outcome := "success"
				if err != nil {
					outcome = "error"
				}
				v.metrics.IncCounter("jwks_fetch_total", map[string]string{"outcome": outcome})
			},
			OnPenaltyRejected: func(uri string) {
				v.metrics.IncCounter("jwks_penalty_rejected_total", map[string]string{})
			},
		}),
	}
	if cfg.penaltyBox != nil {
		cacheOpts = append(cacheOpts, jwks.WithPenaltyBox(cfg.penaltyBox))
	}
	if cfg.logger != nil {
		cacheOpts = append(cacheOpts, jwks.WithLogger(cfg.logger))
	}
	return jwks.NewSimpleJwksCache(cacheOpts...)
}

// checkIssuerRouting rejects issuer sets a token could not be routed
// through unambiguously.
func checkIssuerRouting(configs []*IssuerConfig) error {
	byIssuer := make(map[string][]*IssuerConfig)
	for _, ic := range configs {
		byIssuer[ic.Issuer] = append(byIssuer[ic.Issuer], ic)
	}
	for issuer, group := range byIssuer {
		if len(group) == 1 {
			continue
		}
		seen := make(map[string]bool)
		for _, ic := range group {
			ids := append(append([]string{}, ic.Audience...), ic.ClientID...)
			if len(ids) == 0 {
				return newParameterError(fmt.Sprintf("issuer %q is configured more than once; every config for it must pin an audience or client ID", issuer))
			}
			for _, id := range ids {
				if seen[id] {
					return newParameterError(fmt.Sprintf("issuer %q has overlapping audience/client ID %q across configs", issuer, id))
				}
				seen[id] = true
			}
		}
	}
	return nil
}

// Verify decomposes and verifies the token and returns its payload. It may
// fetch the issuer's JWKS, so it takes a context; a cancelled caller never
// blocks other verifications sharing the cache.
func (v *Verifier) Verify(ctx context.Context, token string, overrides ...VerifyOption) (*jwt.Payload, error) {
	return v.verify(ctx, token, false, overrides)
}

// VerifySync verifies without any possibility of network IO: the issuer's
// JWKS must already be cached, via a prior Verify, Hydrate, or CacheJwks.
// Intended for hot paths such as request authorizers.
func (v *Verifier) VerifySync(token string, overrides ...VerifyOption) (*jwt.Payload, error) {
	return v.verify(context.Background(), token, true, overrides)
}

func (v *Verifier) verify(ctx context.Context, token string, cachedOnly bool, overrides []VerifyOption) (payload *jwt.Payload, err error) {
	start := time.Now()
	span := v.tracer.StartSpan("jwtverify.verify")
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.SetTag("error", err.Error())
		}
		v.metrics.IncCounter("jwt_verify_total", map[string]string{"outcome": outcome})
		v.metrics.ObserveHistogram("jwt_verify_duration_seconds", time.Since(start).Seconds(), map[string]string{})
		span.Finish()
	}()

	decomposed, err := jwt.Decompose(token)
	if err != nil {
		return nil, err
	}

	cfg, err := v.configFor(decomposed)
	if err != nil {
		return nil, err
	}
	span.SetTag("issuer", cfg.Issuer)

	effective := *cfg
	for _, override := range overrides {
		override(&effective)
	}
	if err = v.checkMandatory(&effective); err != nil {
		return nil, err
	}

	jwksURI := effective.jwksURI()
	var key *jwks.Jwk
	if cachedOnly {
		key, err = v.cache.GetCachedJwk(jwksURI, decomposed)
	} else {
		key, err = v.cache.GetJwk(ctx, jwksURI, decomposed)
	}
	if err != nil {
		return nil, err
	}

	if err = v.checkAlgorithmAllowed(&effective, decomposed.Header.Alg); err != nil {
		return nil, err
	}
	if err = signature.Verify(decomposed.Header.Alg, key, decomposed.SignedInput(), decomposed.Signature); err != nil {
		return nil, err
	}

	// From here on the signature is known good, which is what licenses
	// attaching the raw token to claim errors.
	err = v.checkClaims(ctx, &effective, decomposed, key)
	if err != nil {
		if effective.IncludeRawJwtInErrors {
			var claimErr jwt.ClaimError
			if errors.As(err, &claimErr) {
				claimErr.AttachRawJwt(decomposed)
			}
		}
		return nil, err
	}

	if v.logger != nil {
		v.logger.Debugf("verified token from issuer %q", cfg.Issuer)
	}
	return &decomposed.Payload, nil
}

// configFor routes the token to an issuer config: trivially in
// single-issuer mode, by iss (and aud/client_id when several configs share
// an issuer) otherwise.
func (v *Verifier) configFor(d *jwt.DecomposedJwt) (*IssuerConfig, error) {
	if len(v.configs) == 1 {
		return v.configs[0], nil
	}

	candidates := v.byIssuer[d.Payload.Issuer]
	switch len(candidates) {
	case 0:
		return nil, &jwt.InvalidIssuerError{
			InvalidClaimError: jwt.InvalidClaimError{Claim: "iss", Message: fmt.Sprintf("issuer %q is not trusted", d.Payload.Issuer)},
		}
	case 1:
		return candidates[0], nil
	}

	for _, cfg := range candidates {
		if d.Payload.Audience.ContainsAny(cfg.Audience) {
			return cfg, nil
		}
		for _, id := range cfg.ClientID {
			if d.Payload.ClientID == id {
				return cfg, nil
			}
		}
	}
	return nil, &jwt.InvalidIssuerError{
		InvalidClaimError: jwt.InvalidClaimError{Claim: "iss", Message: fmt.Sprintf("no configuration for issuer %q matches the token's audience", d.Payload.Issuer)},
	}
}

// checkMandatory enforces that expectations which must be decided one way
// or the other were either configured, overridden, or explicitly disabled.
func (v *Verifier) checkMandatory(cfg *IssuerConfig) error {
	switch v.kind {
	case kindCognito:
		if len(cfg.ClientID) == 0 && !cfg.NoClientID {
			return newParameterError("client ID must be configured, overridden per call, or disabled with WithoutClientID")
		}
	case kindALB:
		if len(cfg.AlbArn) == 0 && !cfg.NoAlbArn {
			return newParameterError("ALB ARN must be configured, overridden per call, or disabled with WithoutAlbArn")
		}
		if len(cfg.ClientID) == 0 && !cfg.NoClientID {
			return newParameterError("client ID must be configured, overridden per call, or disabled with WithoutClientID")
		}
	default:
		if len(cfg.Audience) == 0 && len(cfg.ClientID) == 0 && !cfg.NoAudience {
			return newParameterError("audience must be configured, overridden per call, or disabled with WithoutAudience")
		}
	}
	return nil
}

func (v *Verifier) defaultAlgorithms() []string {
	switch v.kind {
	case kindCognito:
		return []string{signature.RS256}
	case kindALB:
		return []string{signature.ES256}
	default:
		return signature.AllAlgorithms
	}
}

func (v *Verifier) checkAlgorithmAllowed(cfg *IssuerConfig, alg string) error {
	allowed := cfg.SignatureAlgorithms
	if len(allowed) == 0 {
		allowed = v.defaultAlgorithms()
	}
	for _, a := range allowed {
		if a == alg {
			return nil
		}
	}
	return &signature.InvalidSignatureError{
		Message: fmt.Sprintf("algorithm %s is not in the allowed set %v", alg, allowed),
	}
}

func (v *Verifier) checkClaims(ctx context.Context, cfg *IssuerConfig, d *jwt.DecomposedJwt, key *jwks.Jwk) error {
	expected := jwt.Expected{
		Issuers:   []string{cfg.Issuer},
		TokenUse:  cfg.TokenUse,
		Scopes:    cfg.Scopes,
		ClockSkew: cfg.ClockSkew,
		Now:       v.now,
	}
	switch v.kind {
	case kindCognito:
		// Cognito carries the client in aud on id tokens but in
		// client_id on access tokens; the configured client ID must
		// match whichever one the token has.
		if !cfg.NoClientID {
			expected.Audience = cfg.ClientID
			expected.ClientID = cfg.ClientID
		}
	case kindALB:
		// ALB client IDs live in the token header, checked below.
	default:
		if !cfg.NoAudience {
			expected.Audience = cfg.Audience
		}
		if !cfg.NoClientID {
			expected.ClientID = cfg.ClientID
		}
	}

	if err := jwt.ValidateClaims(d, expected); err != nil {
		return err
	}
	if v.postSignatureCheck != nil {
		if err := v.postSignatureCheck(cfg, d); err != nil {
			return err
		}
	}
	if cfg.CustomJwtCheck != nil {
		return cfg.CustomJwtCheck(ctx, d, key)
	}
	return nil
}

// CacheJwks seeds the cache with a key set obtained out of band, e.g. one
// bundled at build time. In multi-issuer mode the issuer selects whose
// cache entry to seed; single-issuer verifiers accept an empty issuer.
func (v *Verifier) CacheJwks(set *jwks.Jwks, issuer string) error {
	if set == nil {
		return newParameterError("JWKS cannot be nil")
	}
	if issuer == "" {
		if len(v.configs) > 1 {
			return newParameterError("issuer is required when caching JWKS for a multi-issuer verifier")
		}
		v.cache.AddJwks(v.configs[0].jwksURI(), set)
		return nil
	}
	group, ok := v.byIssuer[issuer]
	if !ok {
		return newParameterError(fmt.Sprintf("issuer %q is not configured on this verifier", issuer))
	}
	v.cache.AddJwks(group[0].jwksURI(), set)
	return nil
}

// Hydrate prefetches the JWKS of every configured issuer, so that
// subsequent calls, VerifySync included, hit a warm cache.
func (v *Verifier) Hydrate(ctx context.Context) error {
	var errs []error
	seen := make(map[string]bool)
	for _, cfg := range v.configs {
		uri := cfg.jwksURI()
		if seen[uri] {
			continue
		}
		seen[uri] = true
		if _, err := v.cache.GetJwks(ctx, uri); err != nil {
			errs = append(errs, fmt.Errorf("hydrating %q: %w", uri, err))
		}
	}
	return errors.Join(errs...)
}
