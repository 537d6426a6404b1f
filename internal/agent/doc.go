// Package agent implements the SFMC asset search agent.
//
// The package has two halves. The server half (MCPServer) exposes Salesforce
// Marketing Cloud Content Builder search as MCP tools and resources over
// stdio or streamable-http transport. The client half (Client plus REPL)
// connects to that server - spawning it as a stdio subprocess by default -
// and drives the tools from an interactive command line.
//
// # Key Components
//
//   - MCPServer: registers the SFMC tools (initialize_sfmc_connection,
//     search_sfmc_assets, advanced_asset_search, get_asset_by_id) and the
//     sfmc://connection/status and sfmc://assets/types resources
//   - Client: connects to an MCP server, caches its tool and resource lists,
//     and retries across dropped connections
//   - REPL: interactive Read-Eval-Print Loop with history and completion
//   - Check: connectivity smoke test verifying the expected tool surface
//   - Logger: formatted logging with color support and JSON-RPC tracing
package agent
