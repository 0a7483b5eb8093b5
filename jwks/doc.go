// Package jwks models JSON Web Key Sets and caches them per JWKS URI.
//
// SimpleJwksCache resolves a token's kid to a key, fetching the key set on
// demand with three safeguards: fetches are single-flighted per URI, key
// sets are replaced atomically, and refreshes triggered by unknown kids are
// rate limited by a penalty box so that attacker-minted tokens cannot be
// used to flood an issuer's JWKS endpoint.
package jwks
