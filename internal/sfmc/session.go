package sfmc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	// tokenExpiryMargin is subtracted from the token lifetime so a token
	// is refreshed slightly before SFMC would reject it.
	tokenExpiryMargin = 60 * time.Second

	// defaultTokenLifetime is assumed when the token response omits
	// expires_in.
	defaultTokenLifetime = 3600 * time.Second

	tokenPath = "/v2/token"
)

// Session owns the SFMC credentials and the cached access token for one
// tenant. It is created on init and discarded at process exit; nothing is
// persisted.
type Session struct {
	subdomain    string
	clientID     string
	clientSecret string
	authBaseURL  string
	restBaseURL  string

	hc *http.Client

	mu    sync.Mutex
	token *oauth2.Token
}

// SessionStatus is a read-only snapshot of the session state, backing the
// sfmc://connection/status resource.
type SessionStatus struct {
	Subdomain   string `json:"subdomain"`
	RestBaseURL string `json:"base_url"`
	TokenValid  bool   `json:"token_valid"`
	TokenExpiry string `json:"token_expiry,omitempty"`
}

// NewSession creates a session for the given tenant. URLs are derived from
// the subdomain unless the config overrides them.
func NewSession(cfg Config) *Session {
	authBase := cfg.AuthBaseURL
	if authBase == "" {
		authBase = fmt.Sprintf("https://%s.auth.marketingcloudapis.com", cfg.Subdomain)
	}
	restBase := cfg.RestBaseURL
	if restBase == "" {
		restBase = fmt.Sprintf("https://%s.rest.marketingcloudapis.com", cfg.Subdomain)
	}

	return &Session{
		subdomain:    cfg.Subdomain,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		authBaseURL:  authBase,
		restBaseURL:  restBase,
		hc:           &http.Client{Timeout: 30 * time.Second},
	}
}

// Subdomain returns the tenant subdomain this session authenticates against.
func (s *Session) Subdomain() string { return s.subdomain }

// RestBaseURL returns the REST API base URL for this tenant.
func (s *Session) RestBaseURL() string { return s.restBaseURL }

// Token returns a valid access token, requesting a new one via the
// client-credentials grant when no token is cached or the cached token is
// within the expiry margin.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != nil && s.token.Expiry.After(time.Now().Add(tokenExpiryMargin)) {
		return s.token.AccessToken, nil
	}

	tok, err := s.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	s.token = tok
	return tok.AccessToken, nil
}

// Status reports the session state without triggering a token request.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := SessionStatus{
		Subdomain:   s.subdomain,
		RestBaseURL: s.restBaseURL,
	}
	if s.token != nil && s.token.Expiry.After(time.Now().Add(tokenExpiryMargin)) {
		status.TokenValid = true
		status.TokenExpiry = s.token.Expiry.Format(time.RFC3339)
	}
	return status
}

// tokenResponse is the SFMC /v2/token payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// fetchToken performs the client-credentials grant. SFMC's v2 token endpoint
// takes a JSON body rather than form encoding.
func (s *Session) fetchToken(ctx context.Context) (*oauth2.Token, error) {
	grant := map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     s.clientID,
		"client_secret": s.clientSecret,
	}
	body, err := json.Marshal(grant)
	if err != nil {
		return nil, fmt.Errorf("encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authBaseURL+tokenPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, transportError("token request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError("token request", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := tokenErrorMessage(respBody)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, &AuthError{Status: resp.StatusCode, Msg: msg}
		}
		return nil, &UpstreamError{Status: resp.StatusCode, Body: msg}
	}

	var tr tokenResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return nil, fmt.Errorf("parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, &AuthError{Status: resp.StatusCode, Msg: "token response missing access_token"}
	}

	lifetime := defaultTokenLifetime
	if tr.ExpiresIn > 0 {
		lifetime = time.Duration(tr.ExpiresIn) * time.Second
	}

	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	return &oauth2.Token{
		AccessToken: tr.AccessToken,
		TokenType:   tokenType,
		Expiry:      time.Now().Add(lifetime),
	}, nil
}

// tokenErrorMessage extracts the OAuth error description from a failed token
// response, falling back to the raw body.
func tokenErrorMessage(body []byte) string {
	var errResp struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		if errResp.Description != "" {
			return fmt.Sprintf("%s: %s", errResp.Error, errResp.Description)
		}
		return errResp.Error
	}
	return string(body)
}
