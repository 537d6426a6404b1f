package agent

// MCP notification methods the client reacts to.
const (
	// notificationToolsListChanged is sent when the server's tool list changes
	notificationToolsListChanged = "notifications/tools/list_changed"

	// notificationResourcesListChanged is sent when the server's resource list changes
	notificationResourcesListChanged = "notifications/resources/list_changed"
)

// Names of the tools the server exposes.
const (
	toolInitializeConnection = "initialize_sfmc_connection"
	toolSearchAssets         = "search_sfmc_assets"
	toolAdvancedSearch       = "advanced_asset_search"
	toolGetAsset             = "get_asset_by_id"
)

// URIs of the resources the server exposes.
const (
	resourceConnectionStatus = "sfmc://connection/status"
	resourceAssetTypes       = "sfmc://assets/types"
)
