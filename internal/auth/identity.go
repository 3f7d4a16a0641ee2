package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownProvider is returned for provider names outside the dispatch table.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrMissingExternalID is returned when a profile carries no stable user id.
	ErrMissingExternalID = errors.New("cannot read user info")
)

// Identity is a provider profile reduced to the fields PitchMate keeps.
type Identity struct {
	ExternalID string
	Email      *string
	Name       *string
}

type identityNormalizer func(raw []byte) (Identity, error)

var identityNormalizers = map[string]identityNormalizer{
	ProviderGoogle: normalizeGoogle,
	ProviderKakao:  normalizeKakao,
	ProviderNaver:  normalizeNaver,
}

// NormalizeIdentity maps a raw profile payload from provider onto an Identity.
func NormalizeIdentity(provider string, raw []byte) (Identity, error) {
	normalize, ok := identityNormalizers[provider]
	if !ok {
		return Identity{}, ErrUnknownProvider
	}

	identity, err := normalize(raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: decode %s profile: %v", ErrProfileUnavailable, provider, err)
	}
	if strings.TrimSpace(identity.ExternalID) == "" {
		return Identity{}, ErrMissingExternalID
	}
	return identity, nil
}

// normalizeGoogle reads standard OpenID claims from the verified ID token.
func normalizeGoogle(raw []byte) (Identity, error) {
	var claims struct {
		Sub   string  `json:"sub"`
		Email *string `json:"email"`
		Name  *string `json:"name"`
	}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return Identity{}, err
	}
	return Identity{ExternalID: claims.Sub, Email: claims.Email, Name: claims.Name}, nil
}

// normalizeKakao reads /v2/user/me. Only the nickname is guaranteed; email
// appears when the account_email scope was granted.
func normalizeKakao(raw []byte) (Identity, error) {
	var payload struct {
		ID           json.Number `json:"id"`
		KakaoAccount *struct {
			Email   *string `json:"email"`
			Profile *struct {
				Nickname *string `json:"nickname"`
			} `json:"profile"`
		} `json:"kakao_account"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Identity{}, err
	}

	identity := Identity{ExternalID: payload.ID.String()}
	if account := payload.KakaoAccount; account != nil {
		identity.Email = account.Email
		if account.Profile != nil {
			identity.Name = account.Profile.Nickname
		}
	}
	return identity, nil
}

// normalizeNaver reads /v1/nid/me, which wraps the profile in "response".
func normalizeNaver(raw []byte) (Identity, error) {
	var payload struct {
		Response *struct {
			ID    string  `json:"id"`
			Email *string `json:"email"`
			Name  *string `json:"name"`
		} `json:"response"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Identity{}, err
	}
	if payload.Response == nil {
		return Identity{}, nil
	}
	return Identity{
		ExternalID: payload.Response.ID,
		Email:      payload.Response.Email,
		Name:       payload.Response.Name,
	}, nil
}
