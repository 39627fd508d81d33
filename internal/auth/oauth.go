package auth

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"

	"github.com/pressview/pressview/internal/infrastructure/config"
	"github.com/pressview/pressview/internal/infrastructure/logging"
)

// OAuth performs the WordPress.com authorization-code flow. It only
// brokers the redirect and the code-for-token exchange; token storage
// lives in Store.
type OAuth struct {
	cfg    config.WordPressConfig
	http   *resty.Client
	logger *logging.Logger
}

// NewOAuth creates an OAuth broker for the configured application.
func NewOAuth(cfg config.WordPressConfig, logger *logging.Logger) *OAuth {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &OAuth{
		cfg:    cfg,
		http:   resty.New().SetBaseURL(cfg.APIBase),
		logger: logger,
	}
}

// AuthorizeURL builds the WordPress.com authorize endpoint URL the client
// is redirected to.
func (o *OAuth) AuthorizeURL() string {
	q := url.Values{}
	q.Set("client_id", o.cfg.ClientID)
	q.Set("redirect_uri", o.cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "global")
	return o.cfg.APIBase + "/oauth2/authorize?" + q.Encode()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// Exchange trades an authorization code for an access token.
func (o *OAuth) Exchange(ctx context.Context, code string) (string, error) {
	var body tokenResponse
	resp, err := o.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"code":          code,
			"client_id":     o.cfg.ClientID,
			"client_secret": o.cfg.ClientSecret,
			"redirect_uri":  o.cfg.RedirectURI,
			"grant_type":    "authorization_code",
		}).
		SetResult(&body).
		SetError(&body).
		Post("/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	if resp.IsError() || body.AccessToken == "" {
		if body.Error != "" {
			return "", fmt.Errorf("token exchange: %s: %s", body.Error, body.Description)
		}
		return "", fmt.Errorf("token exchange: status %d", resp.StatusCode())
	}
	return body.AccessToken, nil
}
