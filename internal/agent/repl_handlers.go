package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/martech-tools/mcp-sfmc/internal/sfmc"
)

// mcpTextContents extracts the text of a resource contents item.
func mcpTextContents(content mcp.ResourceContents) (string, bool) {
	if textContent, ok := mcp.AsTextResourceContents(content); ok {
		return textContent.Text, true
	}
	return "", false
}

// toolResultText extracts the first text item of a tool result.
func toolResultText(result *mcp.CallToolResult) (string, bool) {
	for _, content := range result.Content {
		if textContent, ok := mcp.AsTextContent(content); ok {
			return textContent.Text, true
		}
	}
	return "", false
}

// displayToolError prints an error tool result.
func displayToolError(result *mcp.CallToolResult) {
	fmt.Println("Tool returned an error:")
	for _, content := range result.Content {
		if textContent, ok := mcp.AsTextContent(content); ok {
			fmt.Printf("  %s\n", textContent.Text)
		}
	}
}

// displayTextContent displays text content, pretty-printing JSON if possible
func displayTextContent(text string) {
	var jsonData interface{}
	if err := json.Unmarshal([]byte(text), &jsonData); err == nil {
		fmt.Println(PrettyJSON(jsonData))
	} else {
		fmt.Println(text)
	}
}

// handleInit connects to an SFMC tenant through the server's init tool.
func (r *REPL) handleInit(ctx context.Context, subdomain, clientID, clientSecret string) error {
	fmt.Printf("Connecting to SFMC tenant %s...\n", subdomain)
	result, err := r.client.CallTool(ctx, toolInitializeConnection, map[string]interface{}{
		"subdomain":     subdomain,
		"client_id":     clientID,
		"client_secret": clientSecret,
	})
	if err != nil {
		return fmt.Errorf("tool execution failed: %w", err)
	}

	if result.IsError {
		displayToolError(result)
		return nil
	}

	r.setInitialized(true)
	if text, ok := toolResultText(result); ok {
		r.logger.Success("%s", text)
	}
	return nil
}

// handleSearch runs a name search and displays the result summary.
func (r *REPL) handleSearch(ctx context.Context, term string) error {
	if !r.requireInit() {
		return nil
	}

	fmt.Printf("Searching assets matching %q...\n", term)
	result, err := r.client.CallTool(ctx, toolSearchAssets, map[string]interface{}{
		"asset_name": term,
	})
	if err != nil {
		return fmt.Errorf("tool execution failed: %w", err)
	}

	if result.IsError {
		displayToolError(result)
		return nil
	}

	if text, ok := toolResultText(result); ok {
		displaySearchText(text)
	}
	return nil
}

// handleAdvanced runs a raw query body through the advanced search tool.
func (r *REPL) handleAdvanced(ctx context.Context, queryJSON string) error {
	if !r.requireInit() {
		return nil
	}

	if !json.Valid([]byte(queryJSON)) {
		fmt.Println("Error: the query must be valid JSON")
		fmt.Println(`Example: advanced {"property": "name", "simpleOperator": "contains", "value": "newsletter"}`)
		return nil
	}

	fmt.Println("Running advanced search...")
	result, err := r.client.CallTool(ctx, toolAdvancedSearch, map[string]interface{}{
		"query_json": queryJSON,
	})
	if err != nil {
		return fmt.Errorf("tool execution failed: %w", err)
	}

	if result.IsError {
		displayToolError(result)
		return nil
	}

	if text, ok := toolResultText(result); ok {
		displayTextContent(text)
	}
	return nil
}

// handleGet retrieves one asset by ID.
func (r *REPL) handleGet(ctx context.Context, assetID string) error {
	if !r.requireInit() {
		return nil
	}

	fmt.Printf("Retrieving asset %s...\n", assetID)
	result, err := r.client.CallTool(ctx, toolGetAsset, map[string]interface{}{
		"asset_id": assetID,
	})
	if err != nil {
		return fmt.Errorf("tool execution failed: %w", err)
	}

	if result.IsError {
		displayToolError(result)
		return nil
	}

	if text, ok := toolResultText(result); ok {
		displayTextContent(text)
	}
	return nil
}

// handleStatus reads and displays the connection status resource.
func (r *REPL) handleStatus(ctx context.Context) error {
	result, err := r.client.GetResource(ctx, resourceConnectionStatus)
	if err != nil {
		return fmt.Errorf("resource retrieval failed: %w", err)
	}

	for _, content := range result.Contents {
		if text, ok := mcpTextContents(content); ok {
			displayTextContent(text)
		}
	}
	return nil
}

// handleTypes reads and displays the asset types reference resource.
func (r *REPL) handleTypes(ctx context.Context) error {
	result, err := r.client.GetResource(ctx, resourceAssetTypes)
	if err != nil {
		return fmt.Errorf("resource retrieval failed: %w", err)
	}

	for _, content := range result.Contents {
		if text, ok := mcpTextContents(content); ok {
			displayTextContent(text)
		}
	}
	return nil
}

// requireInit nags about the init command before the first connection.
func (r *REPL) requireInit() bool {
	if r.isInitialized() {
		return true
	}
	fmt.Println("Not connected. Run: init <subdomain> <client-id> <client-secret>")
	return false
}

// displaySearchText renders a search result: a one-line summary followed by
// a numbered asset list. Payloads in any other shape print as-is.
func displaySearchText(text string) {
	var result sfmc.SearchResult
	if err := json.Unmarshal([]byte(text), &result); err != nil || result.Summary.PageSize == 0 {
		displayTextContent(text)
		return
	}

	s := result.Summary
	fmt.Printf("Found %d assets (page %d of %d, %d per page):\n",
		s.TotalFound, s.Page, s.TotalPages, s.PageSize)
	for i, asset := range result.Assets {
		line := asset.Name
		if asset.AssetType != "" {
			line += fmt.Sprintf(" [%s]", asset.AssetType)
		}
		if asset.ModifiedDate != "" {
			line += fmt.Sprintf(" (modified %s)", asset.ModifiedDate)
		}
		fmt.Printf("  %d. %s - id %s\n", i+1, line, asset.ID)
	}
	if len(result.Assets) == 0 {
		fmt.Println("  (no assets on this page)")
	}
}
