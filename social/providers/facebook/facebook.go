package facebook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/pavlion/go-directory-auth/social"
)

const defaultGraphURL = "https://graph.facebook.com/me"

// Config holds Facebook access token verification settings.
type Config struct {
	// GraphURL overrides the Graph API profile endpoint, mainly for tests.
	GraphURL string

	HTTPClient *http.Client
}

// Verifier checks Facebook access tokens by exchanging them for the profile
// at the Graph endpoint. Unlike Google there is no offline verification: a
// token is valid exactly when the graph call succeeds.
type Verifier struct {
	config     Config
	httpClient *http.Client
}

// New creates a new Facebook verifier.
func New(cfg Config) *Verifier {
	if cfg.GraphURL == "" {
		cfg.GraphURL = defaultGraphURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Verifier{config: cfg, httpClient: client}
}

// Provider implements social.ProviderVerifier.
func (v *Verifier) Provider() string {
	return "facebook"
}

type graphProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verify implements social.ProviderVerifier.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*social.ProviderIdentity, error) {
	params := url.Values{
		"fields":       {"id,email"},
		"access_token": {rawToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.GraphURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, invalidToken(err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, invalidToken(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, invalidToken(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, social.ErrInvalidProviderToken.Clone().WithMetadata(map[string]any{
			"status": resp.StatusCode,
		})
	}

	var profile graphProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, invalidToken(err)
	}

	if profile.ID == "" || profile.Email == "" {
		return nil, social.ErrInvalidProviderToken
	}

	return &social.ProviderIdentity{
		Provider: v.Provider(),
		Subject:  profile.ID,
		Email:    profile.Email,
	}, nil
}

func invalidToken(err error) error {
	return goerrors.Wrap(err, social.ErrInvalidProviderToken.Category, social.ErrInvalidProviderToken.Message).
		WithTextCode(social.ErrInvalidProviderToken.TextCode).
		WithCode(social.ErrInvalidProviderToken.Code)
}
