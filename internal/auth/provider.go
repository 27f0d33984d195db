package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ProviderVerifier delegates token validation to an external identity
// provider over HTTP. Provider outages surface as ProviderUnavailable, never
// as a credential failure.
type ProviderVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewProviderVerifier constructs a verifier against the given provider URL.
// The timeout bounds the provider round trip.
func NewProviderVerifier(baseURL, apiKey string, timeout time.Duration) *ProviderVerifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ProviderVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type providerUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// Verify asks the provider who the token belongs to.
func (v *ProviderVerifier) Verify(ctx context.Context, raw string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Identity{}, errProviderUnavailable(err)
	}
	req.Header.Set("Authorization", "Bearer "+raw)
	if v.apiKey != "" {
		req.Header.Set("apikey", v.apiKey)
	}

	res, err := v.client.Do(req)
	if err != nil {
		return Identity{}, errProviderUnavailable(err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return Identity{}, errInvalidToken(fmt.Errorf("provider rejected token: %d", res.StatusCode))
	default:
		return Identity{}, errProviderUnavailable(fmt.Errorf("provider returned %d", res.StatusCode))
	}

	var user providerUser
	if err := json.NewDecoder(res.Body).Decode(&user); err != nil {
		return Identity{}, errProviderUnavailable(err)
	}
	if user.ID == "" {
		return Identity{}, errInvalidToken(fmt.Errorf("provider response missing subject"))
	}

	claims := map[string]any{}
	if user.AppMetadata != nil {
		claims["app_metadata"] = user.AppMetadata
	}
	if user.UserMetadata != nil {
		claims["user_metadata"] = user.UserMetadata
	}
	return Identity{ID: user.ID, Email: user.Email, Claims: claims}, nil
}

var _ TokenVerifier = (*ProviderVerifier)(nil)
