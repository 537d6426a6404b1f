package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const githubRepository = "martech-tools/mcp-sfmc"

// newSelfUpdateCmd creates the self-update command
func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selfupdate",
		Short: "Update mcp-sfmc to the latest release",
		Long:  `Check GitHub for a newer release of mcp-sfmc and replace the current binary with it.`,
		RunE:  runSelfUpdate,
	}
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(githubRepository))
	if err != nil {
		return fmt.Errorf("error occurred while detecting version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest version for %s/%s could not be found from github repository", runtime.GOOS, runtime.GOARCH)
	}

	if version == "dev" {
		fmt.Println("Skipping self-update for dev build")
		fmt.Printf("Latest published version is %s\n", latest.Version())
		return nil
	}

	if latest.LessOrEqual(version) {
		fmt.Printf("Current version (%s) is the latest\n", version)
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	fmt.Printf("Updating to version %s...\n", latest.Version())
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("error occurred while updating binary: %w", err)
	}

	fmt.Printf("Successfully updated to version %s\n", latest.Version())
	return nil
}
