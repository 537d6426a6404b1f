package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/martech-tools/mcp-sfmc/internal/sfmc"
)

const errNotInitialized = "SFMC connection not initialized. Call initialize_sfmc_connection first."

// toolError renders an SFMC error as a tool result carrying its taxonomy,
// so callers can tell a fixable input problem from a retryable one.
func toolError(err error) *mcp.CallToolResult {
	var (
		authErr       *sfmc.AuthError
		validationErr *sfmc.ValidationError
		transientErr  *sfmc.TransientError
		upstreamErr   *sfmc.UpstreamError
	)

	switch {
	case errors.As(err, &authErr):
		return mcp.NewToolResultError(fmt.Sprintf("auth error: %v (fix the credentials and run %s again)", err, toolInitializeConnection))
	case errors.As(err, &validationErr):
		return mcp.NewToolResultError(fmt.Sprintf("validation error: %v", err))
	case errors.As(err, &transientErr):
		return mcp.NewToolResultError(fmt.Sprintf("transient network error: %v (safe to retry)", err))
	case errors.As(err, &upstreamErr):
		return mcp.NewToolResultError(fmt.Sprintf("upstream error: %v", err))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

// handleInitializeConnection opens a session for the given tenant and
// verifies the credentials with an immediate token request.
func (m *MCPServer) handleInitializeConnection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subdomain, err := request.RequireString("subdomain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	clientID, err := request.RequireString("client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	clientSecret, err := request.RequireString("client_secret")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session := sfmc.NewSession(sfmc.Config{
		Subdomain:    subdomain,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})

	m.logger.InfoVerbose("Authenticating with SFMC subdomain %s", subdomain)
	if _, err := session.Token(ctx); err != nil {
		return toolError(err), nil
	}

	m.setSFMCClient(sfmc.NewClient(session, m.logger))
	return mcp.NewToolResultText(fmt.Sprintf("Successfully connected to SFMC instance: %s", subdomain)), nil
}

// handleSearchAssets runs a simple search and returns the formatted result.
func (m *MCPServer) handleSearchAssets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client := m.sfmcClient()
	if client == nil {
		return mcp.NewToolResultError(errNotInitialized), nil
	}

	search := sfmc.SimpleSearch{
		Name:       request.GetString("asset_name", ""),
		Type:       request.GetString("asset_type", ""),
		CategoryID: request.GetInt("category_id", 0),
		Page:       request.GetInt("page_number", 1),
		PageSize:   request.GetInt("page_size", 0),
	}

	page, err := client.Search(ctx, search)
	if err != nil {
		return toolError(err), nil
	}

	data, err := json.MarshalIndent(page.Result(), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// advancedSearchResult is the advanced tool's response shape: SFMC's raw
// response passes through alongside the summary and the query that ran.
type advancedSearchResult struct {
	Summary   sfmc.SearchSummary `json:"search_summary"`
	Results   json.RawMessage    `json:"results"`
	QueryUsed *sfmc.QueryRequest `json:"query_used"`
}

// handleAdvancedSearch validates a caller-supplied query body and runs it.
func (m *MCPServer) handleAdvancedSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client := m.sfmcClient()
	if client == nil {
		return mcp.NewToolResultError(errNotInitialized), nil
	}

	queryJSON, err := request.RequireString("query_json")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body, err := sfmc.ParseQueryBody([]byte(queryJSON))
	if err != nil {
		return toolError(err), nil
	}

	page, err := client.Query(ctx, body)
	if err != nil {
		return toolError(err), nil
	}

	data, err := json.MarshalIndent(advancedSearchResult{
		Summary:   page.Summary(),
		Results:   page.Raw,
		QueryUsed: body,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleGetAsset retrieves one asset and returns SFMC's payload verbatim.
func (m *MCPServer) handleGetAsset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client := m.sfmcClient()
	if client == nil {
		return mcp.NewToolResultError(errNotInitialized), nil
	}

	assetID, err := request.RequireString("asset_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	raw, err := client.GetAsset(ctx, assetID)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// connectionStatus is the payload of the sfmc://connection/status resource.
type connectionStatus struct {
	ConnectionStatus string `json:"connection_status"`
	Subdomain        string `json:"subdomain,omitempty"`
	BaseURL          string `json:"base_url,omitempty"`
	TokenValid       bool   `json:"token_valid"`
	TokenExpiry      string `json:"token_expiry,omitempty"`
	Error            string `json:"error,omitempty"`
}

// handleConnectionStatus reports the session state, verifying the
// credentials with a token request when none is cached.
func (m *MCPServer) handleConnectionStatus(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status := connectionStatus{ConnectionStatus: "not initialized"}

	if client := m.sfmcClient(); client != nil {
		session := client.Session()
		snapshot := session.Status()
		status.Subdomain = snapshot.Subdomain
		status.BaseURL = snapshot.RestBaseURL

		if _, err := session.Token(ctx); err != nil {
			status.ConnectionStatus = "authentication failed"
			status.Error = err.Error()
		} else {
			snapshot = session.Status()
			status.ConnectionStatus = "connected"
			status.TokenValid = snapshot.TokenValid
			status.TokenExpiry = snapshot.TokenExpiry
		}
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      resourceConnectionStatus,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// handleAssetTypes serves the static asset types reference.
func (m *MCPServer) handleAssetTypes(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      resourceAssetTypes,
			MIMEType: "application/json",
			Text:     sfmc.AssetTypesReference,
		},
	}, nil
}
