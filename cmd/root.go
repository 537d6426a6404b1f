package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/martech-tools/mcp-sfmc/internal/agent"
	"github.com/martech-tools/mcp-sfmc/internal/sfmc"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

var (
	version         string
	endpoint        string
	timeout         time.Duration
	verbose         bool
	noColor         bool
	jsonRPC         bool
	check           bool
	mcpServer       bool
	transport       string
	serverTransport string
	serverCommand   []string
	listenAddr      string

	// SFMC credential flags; environment variables fill in the blanks
	sfmcSubdomain    string
	sfmcClientID     string
	sfmcClientSecret string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mcp-sfmc",
	Short: "Salesforce Marketing Cloud asset search over MCP",
	Long: `mcp-sfmc exposes Salesforce Marketing Cloud (SFMC) Content Builder
asset search as an MCP (Model Context Protocol) server, and ships an
interactive client for working with it from a terminal.

The tool supports multiple modes:
- Interactive mode (default): a REPL that spawns the server and maps
  commands like 'search' and 'get' onto its tools
- MCP Server mode (--mcp-server): serve the SFMC tools over stdio or
  streamable-http for integration with AI assistants
- Check mode (--check): connect, verify the expected tools and
  resources are exposed, and exit

The server authenticates against SFMC with the client-credentials grant
and exposes four tools (initialize_sfmc_connection, search_sfmc_assets,
advanced_asset_search, get_asset_by_id) plus two resources
(sfmc://connection/status, sfmc://assets/types).

Credentials come from --subdomain/--client-id/--client-secret or the
SFMC_SUBDOMAIN, SFMC_CLIENT_ID and SFMC_CLIENT_SECRET environment
variables. Without them the server starts unconnected and the
initialize_sfmc_connection tool (or the REPL's 'init' command) opens
the connection at runtime.

In interactive mode the client talks to a spawned server over stdio by
default; use --transport streamable-http with --endpoint to attach to a
running server instead.`,
	RunE: runRoot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// SetVersion sets the version for the application
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.Flags().BoolVar(&mcpServer, "mcp-server", false, "Run as MCP server")
	rootCmd.Flags().StringVar(&serverTransport, "server-transport", transportStdio, "Transport protocol for the MCP server itself (stdio, streamable-http)")
	rootCmd.Flags().StringVar(&listenAddr, "listen-addr", ":8899", "Listen address for streamable-http server (path is fixed to /mcp)")
	rootCmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport protocol for client connections (stdio, streamable-http)")
	rootCmd.Flags().StringVar(&endpoint, "endpoint", "http://localhost:8899/mcp", "MCP endpoint URL for streamable-http client connections (must end with /mcp)")
	rootCmd.Flags().StringSliceVar(&serverCommand, "server-command", nil, "Server command and arguments spawned for stdio client connections (default: this binary with --mcp-server)")
	rootCmd.Flags().BoolVar(&check, "check", false, "Connect, verify the expected tools and resources, and exit")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for the connection handshake and check mode")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.Flags().BoolVar(&jsonRPC, "json-rpc", false, "Enable full JSON-RPC message logging")

	rootCmd.Flags().StringVar(&sfmcSubdomain, "subdomain", "", "SFMC tenant subdomain ($SFMC_SUBDOMAIN)")
	rootCmd.Flags().StringVar(&sfmcClientID, "client-id", "", "SFMC connected app client ID ($SFMC_CLIENT_ID)")
	rootCmd.Flags().StringVar(&sfmcClientSecret, "client-secret", "", "SFMC connected app client secret ($SFMC_CLIENT_SECRET)")

	// Add subcommands
	rootCmd.AddCommand(newSelfUpdateCmd())

	rootCmd.MarkFlagsMutuallyExclusive("check", "mcp-server")
}

// sfmcConfig builds the SFMC configuration from flags, falling back to the
// environment for anything left unset.
func sfmcConfig() sfmc.Config {
	cfg := sfmc.ConfigFromEnv()
	if sfmcSubdomain != "" {
		cfg.Subdomain = sfmcSubdomain
	}
	if sfmcClientID != "" {
		cfg.ClientID = sfmcClientID
	}
	if sfmcClientSecret != "" {
		cfg.ClientSecret = sfmcClientSecret
	}
	return cfg
}

// validateTransport validates the client transport configuration
func validateTransport() error {
	switch transport {
	case transportStdio:
		return nil
	case transportStreamableHTTP:
		if !strings.HasSuffix(endpoint, "/mcp") {
			return fmt.Errorf("endpoint '%s' must end with /mcp for streamable-http transport", endpoint)
		}
		return nil
	default:
		return fmt.Errorf("unsupported transport '%s' (stdio, streamable-http)", transport)
	}
}

// setupSignalHandler sets up graceful shutdown on interrupt signals
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		if !mcpServer {
			fmt.Println("\nReceived interrupt signal, shutting down gracefully...")
		}
		cancel()
	}()
}

// runMCPServer runs the SFMC MCP server
func runMCPServer(ctx context.Context, logger *agent.Logger) error {
	// JSON-RPC owns stdout on the stdio transport
	if serverTransport == transportStdio {
		logger.SetWriter(os.Stderr)
	}

	server, err := agent.NewMCPServer(sfmcConfig(), serverTransport, version, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	logger.Info("Starting mcp-sfmc MCP server (transport: %s)...", serverTransport)
	if serverTransport == transportStreamableHTTP {
		addr := listenAddr
		if !strings.Contains(addr, ":") {
			addr = ":" + addr
		}
		logger.Info("Listening on %s%s", addr, "/mcp")
	}

	if err := server.Start(ctx, listenAddr); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// newClient connects an agent client over the configured transport
func newClient(ctx context.Context, logger *agent.Logger) (*agent.Client, error) {
	client := agent.NewClient(agent.ClientConfig{
		Endpoint:      endpoint,
		Transport:     transport,
		ServerCommand: serverCommand,
		Logger:        logger,
		Version:       version,
	})

	connectCtx, connectCancel := context.WithTimeout(ctx, timeout)
	defer connectCancel()

	if err := client.Run(connectCtx); err != nil {
		return nil, fmt.Errorf("failed to connect client: %w", err)
	}
	return client, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	setupSignalHandler(cancel)

	logger := agent.NewLogger(verbose, !noColor, jsonRPC)

	if mcpServer {
		return runMCPServer(ctx, logger)
	}

	if err := validateTransport(); err != nil {
		return err
	}

	client, err := newClient(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if check {
		checkCtx, checkCancel := context.WithTimeout(ctx, timeout)
		defer checkCancel()
		return agent.Check(checkCtx, client, logger)
	}

	repl := agent.NewREPL(client, logger)
	if err := repl.Run(ctx); err != nil {
		return fmt.Errorf("REPL error: %w", err)
	}
	return nil
}
