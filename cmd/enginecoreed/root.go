// Package enginecoreed is the harness CLI: it boots an Engine with the
// demo modules and drives it for a bounded run, and exposes read-only
// inspection subcommands (plugins, assets, services). It is a harness
// and diagnostic front end, not the engine's renderer/windowing layer.
package enginecoreed

import (
	"os"

	"github.com/spf13/cobra"
)

// Exit codes for harness commands.
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

var rootCmd = &cobra.Command{
	Use:          "enginecoreed",
	Short:        "Run and inspect an engine-core frame host",
	SilenceUsage: true,
}

// SetVersion sets the version reported by --version, injected at build
// time from main.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the CLI's entry point, called from main.main.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "enginecoreed version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newPluginsCmd())
	rootCmd.AddCommand(newAssetsCmd())
	rootCmd.AddCommand(newServicesCmd())
}
