package drive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivemd/drivemd/internal/config"
)

func writeToken(t *testing.T, root config.Root, tok *token) {
	t.Helper()
	data, err := json.Marshal(tok)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(root.TokenPath(), data, 0o600))
}

func writeCredentials(t *testing.T, root config.Root, tokenURI string) {
	t.Helper()
	var creds credentials
	creds.Installed.ClientID = "client-id"
	creds.Installed.ClientSecret = "client-secret"
	creds.Installed.TokenURI = tokenURI
	data, err := json.Marshal(&creds)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(root.CredentialsPath(), data, 0o600))
}

func TestTokenSource_MissingTokenFile(t *testing.T) {
	ts := NewTokenSource(config.Root{Dir: t.TempDir()})
	_, err := ts.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestTokenSource_ValidTokenSkipsRefresh(t *testing.T) {
	root := config.Root{Dir: t.TempDir()}
	writeToken(t, root, &token{
		AccessToken:  "cached",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	})

	ts := NewTokenSource(root)
	got, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", got)
}

func TestTokenSource_RefreshesExpiredToken(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotForm = map[string]string{
			"grant_type":    r.FormValue("grant_type"),
			"refresh_token": r.FormValue("refresh_token"),
			"client_id":     r.FormValue("client_id"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	root := config.Root{Dir: t.TempDir()}
	writeCredentials(t, root, srv.URL)
	writeToken(t, root, &token{
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Hour),
	})

	ts := NewTokenSource(root)
	got, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
	assert.Equal(t, "refresh_token", gotForm["grant_type"])
	assert.Equal(t, "refresh-1", gotForm["refresh_token"])
	assert.Equal(t, "client-id", gotForm["client_id"])

	// refreshed token was persisted with the refresh token carried over
	data, err := os.ReadFile(root.TokenPath())
	require.NoError(t, err)
	var persisted token
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, "fresh", persisted.AccessToken)
	assert.Equal(t, "refresh-1", persisted.RefreshToken)
	assert.True(t, persisted.Expiry.After(time.Now()))
}

func TestTokenSource_RefreshWithoutCredentials(t *testing.T) {
	root := config.Root{Dir: t.TempDir()}
	writeToken(t, root, &token{
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Hour),
	})

	ts := NewTokenSource(root)
	_, err := ts.Token(context.Background())
	assert.ErrorIs(t, err, config.ErrNoCredentials)
}

func TestTokenSource_RefreshRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	root := config.Root{Dir: t.TempDir()}
	writeCredentials(t, root, srv.URL)
	writeToken(t, root, &token{
		AccessToken:  "stale",
		RefreshToken: "revoked",
		Expiry:       time.Now().Add(-time.Hour),
	})

	ts := NewTokenSource(root)
	_, err := ts.Token(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}
