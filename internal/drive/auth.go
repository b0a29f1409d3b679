package drive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"

	"github.com/drivemd/drivemd/internal/config"
	"github.com/drivemd/drivemd/internal/utils"
)

var ErrNoToken = errors.New("drive: no cached token; complete the OAuth flow and place token.json in the config root")

// credentials is the relevant subset of an OAuth installed-app client file.
type credentials struct {
	Installed struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
		TokenURI     string `json:"token_uri"`
	} `json:"installed"`
}

type token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

func (t *token) valid() bool {
	// refresh a minute early to absorb clock skew
	return t.AccessToken != "" && time.Until(t.Expiry) > time.Minute
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// TokenSource yields a valid access token, refreshing and re-persisting the
// cached token when it has expired. The interactive consent flow is outside
// this component; a missing token is a terminal auth error with remediation.
type TokenSource struct {
	root config.Root
	http *req.Client

	mu  sync.Mutex
	tok *token
}

func NewTokenSource(root config.Root) *TokenSource {
	return &TokenSource{
		root: root,
		http: req.C().
			SetCommonRetryCount(3).
			SetCommonRetryBackoffInterval(1*time.Second, 5*time.Second),
	}
}

// Token returns a bearer token usable for API calls.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.tok == nil {
		tok, err := ts.loadToken()
		if err != nil {
			return "", err
		}
		ts.tok = tok
	}

	if ts.tok.valid() {
		return ts.tok.AccessToken, nil
	}

	if err := ts.refresh(ctx); err != nil {
		return "", err
	}
	return ts.tok.AccessToken, nil
}

func (ts *TokenSource) loadToken() (*token, error) {
	if !utils.FileExists(ts.root.TokenPath()) {
		return nil, ErrNoToken
	}
	data, err := os.ReadFile(ts.root.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("drive: read token: %w", err)
	}
	var tok token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("drive: parse token: %w", err)
	}
	return &tok, nil
}

func (ts *TokenSource) refresh(ctx context.Context) error {
	if ts.tok.RefreshToken == "" {
		return ErrNoToken
	}
	if !ts.root.HasCredentials() {
		return config.ErrNoCredentials
	}

	data, err := os.ReadFile(ts.root.CredentialsPath())
	if err != nil {
		return fmt.Errorf("drive: read credentials: %w", err)
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("drive: parse credentials: %w", err)
	}

	tokenURI := creds.Installed.TokenURI
	if tokenURI == "" {
		tokenURI = "https://oauth2.googleapis.com/token"
	}

	var refreshed refreshResponse
	resp, err := ts.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     creds.Installed.ClientID,
			"client_secret": creds.Installed.ClientSecret,
			"refresh_token": ts.tok.RefreshToken,
			"grant_type":    "refresh_token",
		}).
		SetSuccessResult(&refreshed).
		Post(tokenURI)

	if err := handleAPIError(resp, err, "token refresh"); err != nil {
		return err
	}

	ts.tok.AccessToken = refreshed.AccessToken
	if refreshed.TokenType != "" {
		ts.tok.TokenType = refreshed.TokenType
	}
	ts.tok.Expiry = time.Now().Add(time.Duration(refreshed.ExpiresIn) * time.Second)

	if err := ts.persistToken(); err != nil {
		// refreshed token still usable in-memory
		return fmt.Errorf("drive: persist refreshed token: %w", err)
	}
	return nil
}

func (ts *TokenSource) persistToken() error {
	data, err := json.MarshalIndent(ts.tok, "", "  ")
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(ts.root.TokenPath(), data, 0o600)
}
