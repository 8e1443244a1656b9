package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Rashmi7205/admin-fam-tree/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateAccountUsesClientCredentials(t *testing.T) {
	var gotAuth string
	var gotBody CreateAccountRequest

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`))
		case "/admin/accounts":
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"uid":"uid-42"}`))
		default:
			http.NotFound(w, r)
		}
	})

	c := NewClient(&config.IdentityConfig{
		BaseURL:      srv.URL + "/admin/",
		TokenURL:     srv.URL + "/oauth/token",
		ClientID:     "admin-panel",
		ClientSecret: "secret",
		Timeout:      5 * time.Second,
	})

	uid, err := c.CreateAccount(context.Background(), CreateAccountRequest{Email: "jane@example.com", Password: "pw123456", EmailVerified: true})
	require.NoError(t, err)
	assert.Equal(t, "uid-42", uid)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "jane@example.com", gotBody.Email)
	assert.True(t, gotBody.EmailVerified)
}

func TestCreateAccountProviderError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"email_exists","error_description":"already registered"}`))
	})
	c := NewClient(&config.IdentityConfig{BaseURL: srv.URL, Timeout: time.Second})

	_, err := c.CreateAccount(context.Background(), CreateAccountRequest{Email: "a@b.c", Password: "x"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "email_exists: already registered", apiErr.Message)
}

func TestDeleteAccount(t *testing.T) {
	var paths []string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.EscapedPath())
		if strings.HasSuffix(r.URL.Path, "/gone") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/broken") {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("internal"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c := NewClient(&config.IdentityConfig{BaseURL: srv.URL, Timeout: time.Second})

	assert.NoError(t, c.DeleteAccount(context.Background(), "a/b"))
	assert.ErrorIs(t, c.DeleteAccount(context.Background(), "gone"), ErrAccountNotFound)

	err := c.DeleteAccount(context.Background(), "broken")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "internal", apiErr.Message)

	assert.Equal(t, "/accounts/a%2Fb", paths[0])
}

func TestNewWithoutBaseURLIsDisabled(t *testing.T) {
	p := New(&config.IdentityConfig{})
	uid, err := p.CreateAccount(context.Background(), CreateAccountRequest{Email: "a@b.c"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uid, "local-"))
	assert.NoError(t, p.DeleteAccount(context.Background(), uid))
}
