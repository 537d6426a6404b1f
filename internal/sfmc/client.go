package sfmc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	assetsPath = "/asset/v1/content/assets"
	queryPath  = assetsPath + "/query"
)

// Logger is the minimal logging surface the client needs. The agent's
// Logger satisfies it.
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

// Client executes Content Builder asset searches against one SFMC tenant.
// Each call ensures a valid token first, then performs a single synchronous
// HTTP request; there is no retry loop beyond the caller re-invoking the
// operation.
type Client struct {
	session *Session
	hc      *http.Client
	logger  Logger
}

// NewClient creates a client bound to the given session. logger may be nil.
func NewClient(session *Session, logger Logger) *Client {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Client{
		session: session,
		hc:      &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// Session returns the session this client authenticates with.
func (c *Client) Session() *Session { return c.session }

// Search translates a simple search into a query body and executes it.
func (c *Client) Search(ctx context.Context, req SimpleSearch) (*AssetPage, error) {
	body, err := req.BuildQuery()
	if err != nil {
		return nil, err
	}
	return c.Query(ctx, body)
}

// Query executes an asset query body against the query endpoint.
func (c *Client) Query(ctx context.Context, req *QueryRequest) (*AssetPage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode query body: %w", err)
	}

	c.logger.Info("Searching assets (page %d, size %d)", req.Page.Page, req.Page.PageSize)

	respBody, err := c.do(ctx, http.MethodPost, queryPath, payload)
	if err != nil {
		return nil, err
	}

	page, err := parseAssetPage(respBody)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Found %d total assets", page.Count)
	return page, nil
}

// GetAsset retrieves one asset by id and returns the raw SFMC payload.
func (c *Client) GetAsset(ctx context.Context, id string) (json.RawMessage, error) {
	if id == "" {
		return nil, &ValidationError{Msg: "asset id is required"}
	}

	c.logger.Info("Retrieving asset %s", id)
	return c.do(ctx, http.MethodGet, assetsPath+"/"+url.PathEscape(id), nil)
}

// do ensures a valid token, performs one request against the REST tenant and
// maps failures into the error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	token, err := c.session.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.session.RestBaseURL()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, transportError(method+" "+path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(method+" "+path, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.Error("SFMC rejected the request with HTTP %d", resp.StatusCode)
		return nil, &AuthError{Status: resp.StatusCode, Msg: string(respBody)}
	default:
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}
}
