package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/martech-tools/mcp-sfmc/internal/sfmc"
)

// MCPServer exposes SFMC asset search as MCP tools and resources.
type MCPServer struct {
	logger          *Logger
	mcpServer       *server.MCPServer
	serverTransport string

	mu     sync.Mutex
	client *sfmc.Client
}

// NewMCPServer creates the server and registers its tools and resources.
// When cfg carries complete credentials the SFMC connection is opened
// eagerly; otherwise the initialize_sfmc_connection tool must be called
// before searching.
func NewMCPServer(cfg sfmc.Config, serverTransport, version string, logger *Logger) (*MCPServer, error) {
	mcpServer := server.NewMCPServer(
		"sfmc-asset-search",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Agent for Salesforce Marketing Cloud asset search operations using REST API authentication"),
	)

	ms := &MCPServer{
		logger:          logger,
		mcpServer:       mcpServer,
		serverTransport: serverTransport,
	}

	if cfg.Complete() {
		ms.client = sfmc.NewClient(sfmc.NewSession(cfg), logger)
		logger.InfoVerbose("SFMC connection configured from environment for subdomain %s", cfg.Subdomain)
	}

	ms.registerTools()
	ms.registerResources()

	return ms, nil
}

// Start serves MCP over the configured transport until the context ends or
// the transport fails.
func (m *MCPServer) Start(ctx context.Context, listenAddr string) error {
	switch m.serverTransport {
	case "stdio":
		return server.ServeStdio(m.mcpServer)
	case "streamable-http":
		httpServer := server.NewStreamableHTTPServer(
			m.mcpServer,
			server.WithEndpointPath("/mcp"),
		)
		return httpServer.Start(listenAddr)
	default:
		return fmt.Errorf("unsupported server transport: %s", m.serverTransport)
	}
}

// sfmcClient returns the current SFMC client, or nil before initialization.
func (m *MCPServer) sfmcClient() *sfmc.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

// setSFMCClient swaps in a freshly initialized client.
func (m *MCPServer) setSFMCClient(c *sfmc.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = c
}

// registerTools registers the four SFMC tools.
func (m *MCPServer) registerTools() {
	initTool := mcp.NewTool(toolInitializeConnection,
		mcp.WithDescription("Initialize the Salesforce Marketing Cloud connection with client-credentials and verify authentication"),
		mcp.WithString("subdomain",
			mcp.Required(),
			mcp.Description("SFMC tenant subdomain (the mcXXXX part of your marketingcloudapis.com URLs)"),
		),
		mcp.WithString("client_id",
			mcp.Required(),
			mcp.Description("Connected app client ID"),
		),
		mcp.WithString("client_secret",
			mcp.Required(),
			mcp.Description("Connected app client secret"),
		),
	)
	m.mcpServer.AddTool(initTool, m.handleInitializeConnection)

	searchTool := mcp.NewTool(toolSearchAssets,
		mcp.WithDescription("Search Content Builder assets by name, type and/or category"),
		mcp.WithString("asset_name",
			mcp.Description("Substring to match against asset names"),
		),
		mcp.WithString("asset_type",
			mcp.Description("Exact asset type name (email, template, block, image, ...)"),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Results per page, 1-50 (default 50)"),
		),
		mcp.WithNumber("page_number",
			mcp.Description("Page to fetch, starting at 1"),
		),
		mcp.WithNumber("category_id",
			mcp.Description("Restrict results to a category (folder) ID"),
		),
	)
	m.mcpServer.AddTool(searchTool, m.handleSearchAssets)

	advancedTool := mcp.NewTool(toolAdvancedSearch,
		mcp.WithDescription("Run an advanced asset search with a raw SFMC query body. Accepts a full body ({page, query, sort}) or a bare query tree of leftOperand/logicalOperator/rightOperand branches and property/simpleOperator/value leaves"),
		mcp.WithString("query_json",
			mcp.Required(),
			mcp.Description("Query body or query tree as JSON"),
		),
	)
	m.mcpServer.AddTool(advancedTool, m.handleAdvancedSearch)

	getTool := mcp.NewTool(toolGetAsset,
		mcp.WithDescription("Retrieve the full payload of one asset by its ID"),
		mcp.WithString("asset_id",
			mcp.Required(),
			mcp.Description("Asset ID"),
		),
	)
	m.mcpServer.AddTool(getTool, m.handleGetAsset)
}

// registerResources registers the status and reference resources.
func (m *MCPServer) registerResources() {
	statusResource := mcp.NewResource(resourceConnectionStatus, "Connection Status",
		mcp.WithResourceDescription("Current SFMC connection state, token validity and expiry"),
		mcp.WithMIMEType("application/json"),
	)
	m.mcpServer.AddResource(statusResource, m.handleConnectionStatus)

	typesResource := mcp.NewResource(resourceAssetTypes, "Asset Types Reference",
		mcp.WithResourceDescription("Common Content Builder asset types, query operators and example query trees"),
		mcp.WithMIMEType("application/json"),
	)
	m.mcpServer.AddResource(typesResource, m.handleAssetTypes)
}
