package agent

import (
	"context"
	"encoding/json"
	"fmt"
)

// expectedTools and expectedResources are the surface a healthy server
// exposes; Check fails when any of them is missing.
var expectedTools = []string{
	toolInitializeConnection,
	toolSearchAssets,
	toolAdvancedSearch,
	toolGetAsset,
}

var expectedResources = []string{
	resourceConnectionStatus,
	resourceAssetTypes,
}

// Check verifies that a connected server exposes the expected tools and
// resources and that the reference resource serves valid JSON.
func Check(ctx context.Context, client *Client, logger *Logger) error {
	logger.Info("Checking server surface...")

	var missing []string

	tools := make(map[string]bool)
	for _, tool := range client.Tools() {
		tools[tool.Name] = true
	}
	for _, name := range expectedTools {
		if tools[name] {
			logger.Success("tool %s", name)
		} else {
			logger.Error("tool %s is missing", name)
			missing = append(missing, name)
		}
	}

	resources := make(map[string]bool)
	for _, resource := range client.Resources() {
		resources[resource.URI] = true
	}
	for _, uri := range expectedResources {
		if resources[uri] {
			logger.Success("resource %s", uri)
		} else {
			logger.Error("resource %s is missing", uri)
			missing = append(missing, uri)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("server check failed: %d of %d expected items missing",
			len(missing), len(expectedTools)+len(expectedResources))
	}

	if resources[resourceAssetTypes] {
		result, err := client.GetResource(ctx, resourceAssetTypes)
		if err != nil {
			return fmt.Errorf("server check failed: reading %s: %w", resourceAssetTypes, err)
		}
		if len(result.Contents) == 0 {
			return fmt.Errorf("server check failed: %s has no contents", resourceAssetTypes)
		}
		if text, ok := mcpTextContents(result.Contents[0]); !ok || !json.Valid([]byte(text)) {
			return fmt.Errorf("server check failed: %s is not valid JSON", resourceAssetTypes)
		}
		logger.Success("resource %s serves valid JSON", resourceAssetTypes)
	}

	logger.Success("Server check passed")
	return nil
}
