package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

// errExit is a sentinel error used to signal REPL exit
var errExit = errors.New("exit")

// REPL is the interactive SFMC asset search shell. Commands map onto the
// server's tools and resources; input that is not a command runs as a
// name search.
type REPL struct {
	client          *Client
	logger          *Logger
	rl              *readline.Instance
	stopChan        chan struct{}
	wg              sync.WaitGroup
	commandHandlers map[string]commandHandler

	mu          sync.Mutex
	initialized bool
}

// NewREPL creates a new REPL instance
func NewREPL(client *Client, logger *Logger) *REPL {
	r := &REPL{
		client:   client,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
	r.commandHandlers = r.buildCommandHandlers()
	return r
}

// Run starts the REPL
func (r *REPL) Run(ctx context.Context) error {
	// Set up readline with tab completion
	completer := r.createCompleter()
	historyFile := filepath.Join(os.TempDir(), ".mcp_sfmc_history")

	config := &readline.Config{
		Prompt:          "SFMC> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	}

	rl, err := readline.NewEx(config)
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer func() { _ = rl.Close() }()
	r.rl = rl

	// Start notification listener in background
	r.wg.Add(1)
	go r.notificationListener(ctx)

	r.probeConnection(ctx)

	r.logger.Info("SFMC asset search REPL started. Type 'help' for available commands. Use TAB for completion.")
	if !r.isInitialized() {
		r.logger.Info("Not connected. Run: init <subdomain> <client-id> <client-secret>")
	}
	fmt.Println()

	// Main REPL loop
	for {
		// Check if context is cancelled
		select {
		case <-ctx.Done():
			close(r.stopChan)
			r.wg.Wait()
			r.logger.Info("REPL shutting down...")
			return nil
		default:
		}

		// Read input
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				continue
			}
		} else if err == io.EOF {
			close(r.stopChan)
			r.wg.Wait()
			r.logger.Info("Goodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		// Parse and execute command
		if err := r.executeCommand(ctx, input); err != nil {
			if errors.Is(err, errExit) {
				close(r.stopChan)
				r.wg.Wait()
				r.logger.Info("Goodbye!")
				return nil
			}
			r.logger.Error("Error: %v", err)
		}

		fmt.Println()
	}
}

// probeConnection reads the status resource once at startup so a server
// configured from the environment is picked up without an explicit init.
func (r *REPL) probeConnection(ctx context.Context) {
	result, err := r.client.GetResource(ctx, resourceConnectionStatus)
	if err != nil || len(result.Contents) == 0 {
		return
	}
	text, ok := mcpTextContents(result.Contents[0])
	if !ok {
		return
	}
	if strings.Contains(text, `"connected"`) {
		r.setInitialized(true)
		r.logger.Success("SFMC connection already configured")
	}
}

func (r *REPL) isInitialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

func (r *REPL) setInitialized(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initialized = v
}

// createCompleter creates the tab completion configuration
func (r *REPL) createCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("?"),
		readline.PcItem("init"),
		readline.PcItem("search"),
		readline.PcItem("advanced"),
		readline.PcItem("get"),
		readline.PcItem("status"),
		readline.PcItem("types"),
		readline.PcItem("tools"),
		readline.PcItem("verbose",
			readline.PcItem("on"),
			readline.PcItem("off"),
		),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}

// filterInput filters input characters for readline
func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// notificationListener handles notifications in the background
func (r *REPL) notificationListener(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case notification := <-r.client.notificationChan:
			// Temporarily pause readline
			if r.rl != nil {
				_, _ = r.rl.Stdout().Write([]byte("\r\033[K"))
			}

			// Handle the notification (this will log it)
			if err := r.client.handleNotification(ctx, notification); err != nil {
				r.logger.Error("Failed to handle notification: %v", err)
			}

			// Refresh readline prompt
			if r.rl != nil {
				r.rl.Refresh()
			}
		}
	}
}

// commandHandler defines a REPL command with its handler and argument requirements
type commandHandler struct {
	minArgs int
	usage   string
	handler func(ctx context.Context, parts []string) error
}

// buildCommandHandlers creates the map of command handlers
func (r *REPL) buildCommandHandlers() map[string]commandHandler {
	return map[string]commandHandler{
		"help": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return r.showHelp()
		}},
		"?": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return r.showHelp()
		}},
		"exit": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return errExit
		}},
		"quit": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return errExit
		}},
		"q": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return errExit
		}},
		"init": {
			minArgs: 4,
			usage:   "usage: init <subdomain> <client-id> <client-secret>",
			handler: func(ctx context.Context, parts []string) error {
				return r.handleInit(ctx, parts[1], parts[2], parts[3])
			},
		},
		"search": {
			minArgs: 2,
			usage:   "usage: search <name-substring>",
			handler: func(ctx context.Context, parts []string) error {
				return r.handleSearch(ctx, strings.Join(parts[1:], " "))
			},
		},
		"advanced": {
			minArgs: 2,
			usage:   "usage: advanced <query-json>",
			handler: func(ctx context.Context, parts []string) error {
				return r.handleAdvanced(ctx, strings.Join(parts[1:], " "))
			},
		},
		"get": {
			minArgs: 2,
			usage:   "usage: get <asset-id>",
			handler: func(ctx context.Context, parts []string) error {
				return r.handleGet(ctx, parts[1])
			},
		},
		"status": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return r.handleStatus(ctx)
		}},
		"types": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return r.handleTypes(ctx)
		}},
		"tools": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return r.listTools()
		}},
		"verbose": {
			minArgs: 2,
			usage:   "usage: verbose <on|off>",
			handler: func(ctx context.Context, parts []string) error {
				return r.handleVerbose(parts[1])
			},
		},
	}
}

// executeCommand parses and executes a command. Input that does not start
// with a known command runs as a name search.
func (r *REPL) executeCommand(ctx context.Context, input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	command := strings.ToLower(parts[0])

	handler, exists := r.commandHandlers[command]
	if !exists {
		return r.handleSearch(ctx, input)
	}

	if len(parts) < handler.minArgs {
		return errors.New(handler.usage)
	}

	return handler.handler(ctx, parts)
}

// showHelp displays available commands
func (r *REPL) showHelp() error {
	fmt.Println("Available commands:")
	fmt.Println("  help, ?                              - Show this help message")
	fmt.Println("  init <subdomain> <id> <secret>       - Connect to an SFMC tenant")
	fmt.Println("  search <name>                        - Search assets by name substring")
	fmt.Println("  advanced {json}                      - Run a raw query body or query tree")
	fmt.Println("  get <asset-id>                       - Retrieve one asset by ID")
	fmt.Println("  status                               - Show connection and token status")
	fmt.Println("  types                                - Show asset types and query operators")
	fmt.Println("  tools                                - List the server's tools")
	fmt.Println("  verbose <on|off>                     - Toggle verbose logging")
	fmt.Println("  exit, quit, q                        - Exit the REPL")
	fmt.Println()
	fmt.Println("Anything else runs as a name search, so 'newsletter' and")
	fmt.Println("'search newsletter' are the same query.")
	fmt.Println()
	fmt.Println("Keyboard shortcuts:")
	fmt.Println("  TAB                                  - Auto-complete commands")
	fmt.Println("  ↑/↓ (arrow keys)                     - Navigate command history")
	fmt.Println("  Ctrl+R                               - Search command history")
	fmt.Println("  Ctrl+C                               - Cancel current line")
	fmt.Println("  Ctrl+D                               - Exit REPL")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  init mc12345 my-client-id my-client-secret")
	fmt.Println("  search spring newsletter")
	fmt.Println("  advanced {\"property\": \"assetType.name\", \"simpleOperator\": \"eq\", \"value\": \"email\"}")
	fmt.Println("  get 12345")
	return nil
}

// listTools displays the server's tools from the cache
func (r *REPL) listTools() error {
	tools := r.client.Tools()
	if len(tools) == 0 {
		fmt.Println("No tools available.")
		return nil
	}

	fmt.Printf("Available tools (%d):\n", len(tools))
	for i, tool := range tools {
		fmt.Printf("  %d. %-30s - %s\n", i+1, tool.Name, tool.Description)
	}
	return nil
}

// handleVerbose toggles verbose logging
func (r *REPL) handleVerbose(setting string) error {
	switch strings.ToLower(setting) {
	case "on":
		r.logger.SetVerbose(true)
		fmt.Println("Verbose logging enabled")
	case "off":
		r.logger.SetVerbose(false)
		fmt.Println("Verbose logging disabled")
	default:
		return fmt.Errorf("invalid setting: %s. Use 'on' or 'off'", setting)
	}
	return nil
}
