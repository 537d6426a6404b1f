package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// Client is the REPL's connection to the SFMC MCP server. It caches the
// server's tool and resource lists and refreshes them on list_changed
// notifications.
type Client struct {
	endpoint           string
	transport          string
	serverCommand      []string
	logger             *Logger
	client             client.MCPClient
	toolCache          []mcp.Tool
	resourceCache      []mcp.Resource
	mu                 sync.RWMutex
	notificationChan   chan mcp.JSONRPCNotification
	serverCapabilities *mcp.ServerCapabilities
	version            string
}

// ClientConfig holds configuration for creating a new Client.
type ClientConfig struct {
	// Endpoint is the streamable-http URL; ignored for stdio.
	Endpoint string
	// Transport is "stdio" or "streamable-http".
	Transport string
	// ServerCommand is the server executable and arguments spawned for the
	// stdio transport. Empty means this binary with --mcp-server.
	ServerCommand []string
	Logger        *Logger
	Version       string
}

// NewClient creates a new agent client from a configuration.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		endpoint:         cfg.Endpoint,
		transport:        cfg.Transport,
		serverCommand:    cfg.ServerCommand,
		logger:           cfg.Logger,
		toolCache:        []mcp.Tool{},
		resourceCache:    []mcp.Resource{},
		notificationChan: make(chan mcp.JSONRPCNotification, 10),
		version:          cfg.Version,
	}
}

// Run connects to the server and performs the MCP handshake.
func (c *Client) Run(ctx context.Context) error {
	return c.connectAndInitialize(ctx)
}

// Close shuts down the transport, terminating a spawned stdio server.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) Reconnect(ctx context.Context) error {
	c.logger.Info("Attempting to reconnect to MCP server...")
	if c.client != nil {
		c.client.Close()
	}
	return c.connectAndInitialize(ctx)
}

func (c *Client) connectAndInitialize(ctx context.Context) error {
	var mcpClient *client.Client
	var err error

	switch c.transport {
	case "stdio":
		command, args := c.stdioCommand()
		c.logger.Info("Starting MCP server: %s %s", command, strings.Join(args, " "))
		// NewStdioMCPClient spawns the process and starts the transport.
		mcpClient, err = client.NewStdioMCPClient(command, os.Environ(), args...)
		if err != nil {
			return fmt.Errorf("failed to start stdio server: %w", err)
		}

	case "streamable-http":
		c.logger.Info("Connecting to MCP server at %s...", c.endpoint)
		mcpClient, err = client.NewStreamableHttpClient(c.endpoint)
		if err != nil {
			return fmt.Errorf("failed to create streamable HTTP client: %w", err)
		}
		if err := mcpClient.Start(ctx); err != nil {
			return fmt.Errorf("failed to start client: %w", err)
		}

	default:
		return fmt.Errorf("unsupported transport: %s", c.transport)
	}

	c.client = mcpClient

	mcpClient.OnNotification(func(notification mcp.JSONRPCNotification) {
		select {
		case c.notificationChan <- notification:
		case <-ctx.Done():
		}
	})

	if err := c.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	// List capabilities conditionally based on what the server supports
	if c.ServerSupportsTools() {
		if err := c.listTools(ctx, true); err != nil {
			return fmt.Errorf("initial tool listing failed: %w", err)
		}
	} else {
		c.logger.Info("Server does not support tools capability")
	}

	if c.ServerSupportsResources() {
		if err := c.listResources(ctx, true); err != nil {
			return fmt.Errorf("initial resource listing failed: %w", err)
		}
	} else {
		c.logger.Info("Server does not support resources capability")
	}

	return nil
}

// stdioCommand resolves the server command for the stdio transport. With no
// configured command the client re-executes its own binary in server mode.
func (c *Client) stdioCommand() (string, []string) {
	if len(c.serverCommand) > 0 {
		return c.serverCommand[0], c.serverCommand[1:]
	}

	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}
	return self, []string{"--mcp-server"}
}

func (c *Client) Listen(ctx context.Context) error {
	// Wait for notifications
	c.logger.Info("Waiting for notifications (press Ctrl+C to exit)...")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Shutting down...")
			return nil

		case notification := <-c.notificationChan:
			if err := c.handleNotification(ctx, notification); err != nil {
				c.logger.Error("Failed to handle notification: %v", err)
			}
		}
	}
}

// initialize performs the MCP protocol handshake
func (c *Client) initialize(ctx context.Context) error {
	req := mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: "2024-11-05",
			ClientInfo: mcp.Implementation{
				Name:    "mcp-sfmc-agent",
				Version: c.version,
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	}

	c.logger.Request("initialize", req.Params)

	result, err := c.client.Initialize(ctx, req)
	if err != nil {
		c.logger.Error("Initialize failed: %v", err)
		return err
	}

	c.logger.Response("initialize", result)

	// Store server capabilities for conditional feature usage
	c.mu.Lock()
	c.serverCapabilities = &result.Capabilities
	c.mu.Unlock()

	return nil
}

// listTools lists all available tools
func (c *Client) listTools(ctx context.Context, initial bool) error {
	req := mcp.ListToolsRequest{}

	c.logger.Request("tools/list", req.Params)

	result, err := c.client.ListTools(ctx, req)
	if err != nil {
		c.logger.Error("ListTools failed: %v", err)
		return err
	}

	c.logger.Response("tools/list", result)

	if !initial {
		c.mu.RLock()
		oldTools := c.toolCache
		c.mu.RUnlock()

		c.mu.Lock()
		c.toolCache = result.Tools
		c.mu.Unlock()

		c.showToolDiff(oldTools, result.Tools)
	} else {
		c.mu.Lock()
		c.toolCache = result.Tools
		c.mu.Unlock()
	}

	return nil
}

// listResources lists all available resources
func (c *Client) listResources(ctx context.Context, initial bool) error {
	req := mcp.ListResourcesRequest{}

	c.logger.Request("resources/list", req.Params)

	result, err := c.client.ListResources(ctx, req)
	if err != nil {
		c.logger.Error("ListResources failed: %v", err)
		return err
	}

	c.logger.Response("resources/list", result)

	if !initial {
		c.mu.RLock()
		oldResources := c.resourceCache
		c.mu.RUnlock()

		c.mu.Lock()
		c.resourceCache = result.Resources
		c.mu.Unlock()

		c.showResourceDiff(oldResources, result.Resources)
	} else {
		c.mu.Lock()
		c.resourceCache = result.Resources
		c.mu.Unlock()
	}

	return nil
}

// handleNotification processes incoming notifications
func (c *Client) handleNotification(ctx context.Context, notification mcp.JSONRPCNotification) error {
	c.logger.Notification(notification.Method, notification.Params)

	switch notification.Method {
	case notificationToolsListChanged:
		if c.ServerSupportsTools() {
			return c.listTools(ctx, false)
		}

	case notificationResourcesListChanged:
		if c.ServerSupportsResources() {
			return c.listResources(ctx, false)
		}

	default:
		// Unknown notification type
	}

	return nil
}

// showToolDiff displays the differences between old and new tool lists
func (c *Client) showToolDiff(oldTools, newTools []mcp.Tool) {
	oldMap := make(map[string]mcp.Tool)
	for _, tool := range oldTools {
		oldMap[tool.Name] = tool
	}

	newMap := make(map[string]mcp.Tool)
	for _, tool := range newTools {
		newMap[tool.Name] = tool
	}

	var added []string
	var removed []string
	var unchanged []string

	for name := range newMap {
		if _, exists := oldMap[name]; exists {
			unchanged = append(unchanged, name)
		} else {
			added = append(added, name)
		}
	}

	for name := range oldMap {
		if _, exists := newMap[name]; !exists {
			removed = append(removed, name)
		}
	}

	if len(added) > 0 || len(removed) > 0 {
		c.logger.Info("Tool changes detected:")
		for _, name := range unchanged {
			c.logger.Success("  ✓ Unchanged: %s", name)
		}
		for _, name := range added {
			c.logger.Success("  + Added: %s", name)
		}
		for _, name := range removed {
			c.logger.Error("  - Removed: %s", name)
		}
	} else {
		c.logger.Info("No tool changes detected")
	}
}

// showResourceDiff displays the differences between old and new resource lists
func (c *Client) showResourceDiff(oldResources, newResources []mcp.Resource) {
	oldMap := make(map[string]mcp.Resource)
	for _, resource := range oldResources {
		oldMap[resource.URI] = resource
	}

	newMap := make(map[string]mcp.Resource)
	for _, resource := range newResources {
		newMap[resource.URI] = resource
	}

	var added []string
	var removed []string
	var unchanged []string

	for uri := range newMap {
		if _, exists := oldMap[uri]; exists {
			unchanged = append(unchanged, uri)
		} else {
			added = append(added, uri)
		}
	}

	for uri := range oldMap {
		if _, exists := newMap[uri]; !exists {
			removed = append(removed, uri)
		}
	}

	if len(added) > 0 || len(removed) > 0 {
		c.logger.Info("Resource changes detected:")
		for _, uri := range unchanged {
			c.logger.Success("  ✓ Unchanged: %s", uri)
		}
		for _, uri := range added {
			c.logger.Success("  + Added: %s", uri)
		}
		for _, uri := range removed {
			c.logger.Error("  - Removed: %s", uri)
		}
	} else {
		c.logger.Info("No resource changes detected")
	}
}

// PrettyJSON pretty-prints JSON for logging
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}

// Helper methods to check server capabilities
func (c *Client) ServerSupportsTools() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverCapabilities != nil && c.serverCapabilities.Tools != nil
}

func (c *Client) ServerSupportsResources() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverCapabilities != nil && c.serverCapabilities.Resources != nil
}

func shouldReconnect(err error) bool {
	if err == nil {
		return false
	}

	// Check for context cancellation, which can happen on disconnect
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset by peer") ||
		strings.Contains(errMsg, "transport is closing") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "unexpected eof") {
		return true
	}

	return false
}
