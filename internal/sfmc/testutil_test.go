package sfmc

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeSFMC is a mock SFMC tenant serving both the auth token endpoint and
// the Content Builder asset endpoints from a single httptest server.
type fakeSFMC struct {
	*httptest.Server
	t *testing.T

	// Configuration
	expiresIn   int
	tokenStatus int
	tokenBody   string
	assetStatus int
	assetBody   string

	// State tracking
	mu            sync.Mutex
	tokenRequests int
	assetRequests int
	lastAuth      string
	lastQueryBody []byte
	lastAssetPath string
}

// newFakeSFMC creates a mock tenant issuing tokens with a one hour lifetime
// and returning an empty result page for asset queries.
func newFakeSFMC(t *testing.T) *fakeSFMC {
	t.Helper()

	f := &fakeSFMC{
		t:           t,
		expiresIn:   3600,
		tokenStatus: http.StatusOK,
		assetStatus: http.StatusOK,
		assetBody:   `{"count": 0, "page": 1, "pageSize": 50, "items": []}`,
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

// config returns a Config pointing both base URLs at the fake tenant.
func (f *fakeSFMC) config() Config {
	return Config{
		Subdomain:    "mc-test",
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		AuthBaseURL:  f.URL,
		RestBaseURL:  f.URL,
	}
}

func (f *fakeSFMC) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == tokenPath:
		f.handleToken(w, r)
	case strings.HasPrefix(r.URL.Path, assetsPath):
		f.handleAssets(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSFMC) handleToken(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.tokenRequests++
	n := f.tokenRequests
	f.mu.Unlock()

	var grant map[string]string
	if err := json.NewDecoder(r.Body).Decode(&grant); err != nil {
		f.t.Errorf("token request body is not JSON: %v", err)
	}
	if grant["grant_type"] != "client_credentials" {
		f.t.Errorf("expected client_credentials grant, got %q", grant["grant_type"])
	}

	if f.tokenStatus != http.StatusOK {
		w.WriteHeader(f.tokenStatus)
		_, _ = io.WriteString(w, f.tokenBody)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"access_token": "token-%d", "token_type": "Bearer", "expires_in": %d}`, n, f.expiresIn)
}

func (f *fakeSFMC) handleAssets(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.assetRequests++
	f.lastAuth = r.Header.Get("Authorization")
	f.lastAssetPath = r.URL.Path
	if r.Method == http.MethodPost {
		f.lastQueryBody = body
	}
	f.mu.Unlock()

	w.WriteHeader(f.assetStatus)
	_, _ = io.WriteString(w, f.assetBody)
}

func (f *fakeSFMC) tokenRequestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenRequests
}

func (f *fakeSFMC) assetRequestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assetRequests
}

func (f *fakeSFMC) queryBody() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQueryBody
}

func (f *fakeSFMC) lastPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAssetPath
}

func (f *fakeSFMC) lastAuthHeader() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}
