package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressview/pressview/internal/infrastructure/config"
)

func TestAuthorizeURL(t *testing.T) {
	o := NewOAuth(config.WordPressConfig{
		ClientID:    "cid",
		RedirectURI: "http://localhost:8000/auth/callback",
		APIBase:     "https://public-api.wordpress.com",
	}, nil)

	u := o.AuthorizeURL()
	assert.True(t, strings.HasPrefix(u, "https://public-api.wordpress.com/oauth2/authorize?"))
	assert.Contains(t, u, "client_id=cid")
	assert.Contains(t, u, "response_type=code")
	assert.Contains(t, u, "scope=global")
	assert.Contains(t, u, "redirect_uri=http%3A%2F%2Flocalhost%3A8000%2Fauth%2Fcallback")
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/oauth2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer"}`))
	}))
	defer srv.Close()

	o := NewOAuth(config.WordPressConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost:8000/auth/callback",
		APIBase:      srv.URL,
	}, nil)

	token, err := o.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestExchangeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"code expired"}`))
	}))
	defer srv.Close()

	o := NewOAuth(config.WordPressConfig{APIBase: srv.URL}, nil)

	_, err := o.Exchange(context.Background(), "stale")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
	assert.Contains(t, err.Error(), "code expired")
}

func TestExchangeEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	o := NewOAuth(config.WordPressConfig{APIBase: srv.URL}, nil)

	_, err := o.Exchange(context.Background(), "code")
	assert.Error(t, err)
}
