package jwt

import (
	"encoding/json"
	"fmt"
)

// Header represents the JOSE header of a JWT. The signer and client fields
// are populated for tokens minted by an AWS Application Load Balancer.
type Header struct {
	Alg    string `json:"alg"`
	Kid    string `json:"kid,omitempty"`
	Typ    string `json:"typ,omitempty"`
	Signer string `json:"signer,omitempty"`
	Client string `json:"client,omitempty"`
}

// Payload represents the claim set of a JWT. Only the claims this library
// validates are typed; the complete decoded claim set, including any claims
// not listed here, is available through Raw.
type Payload struct {
	Issuer    string       `json:"iss,omitempty"`
	Subject   string       `json:"sub,omitempty"`
	Audience  AudienceList `json:"aud,omitempty"`
	Expiry    int64        `json:"exp,omitempty"`
	NotBefore int64        `json:"nbf,omitempty"`
	IssuedAt  int64        `json:"iat,omitempty"`
	TokenUse  string       `json:"token_use,omitempty"`
	ClientID  string       `json:"client_id,omitempty"`
	Scope     string       `json:"scope,omitempty"`

	// Raw is the full claim set as decoded JSON.
	Raw map[string]any `json:"-"`
}

// AudienceList holds the aud claim, which RFC 7519 allows to be either a
// single string or an array of strings.
type AudienceList []string

// UnmarshalJSON accepts both the string and the array form of aud.
func (a *AudienceList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = AudienceList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("aud must be a string or an array of strings: %w", err)
	}
	*a = AudienceList(many)
	return nil
}

// Contains reports whether the audience list includes the given value.
func (a AudienceList) Contains(value string) bool {
	for _, aud := range a {
		if aud == value {
			return true
		}
	}
	return false
}

// ContainsAny reports whether the audience list includes at least one of
// the given values.
func (a AudienceList) ContainsAny(values []string) bool {
	for _, v := range values {
		if a.Contains(v) {
			return true
		}
	}
	return false
}
