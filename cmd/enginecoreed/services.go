package enginecoreed

import (
	"github.com/spf13/cobra"

	"github.com/forgecore/enginecore/internal/diagnostics"
)

func newServicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "Inspect the plugin service registry",
	}
	cmd.AddCommand(newServicesListCmd())
	cmd.AddCommand(newServicesToolsCmd())
	return cmd
}

func servicesFlags(cmd *cobra.Command, pluginDir, importersDir *string) {
	cmd.Flags().StringVar(pluginDir, "plugin-dir", "", "directory of *.so plugins to load")
	cmd.Flags().StringVar(importersDir, "importers-dir", "", "directory of *.so asset-importer plugins to load")
}

func newServicesListCmd() *cobra.Command {
	var pluginDir, importersDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Load plugins from the given directories and print every registered service",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newDemoEngine(pluginDir, importersDir)
			if err != nil {
				return err
			}
			cmd.Print(diagnostics.RenderServices(eng.Services().Snapshot()))
			return nil
		},
	}
	servicesFlags(cmd, &pluginDir, &importersDir)
	return cmd
}

func newServicesToolsCmd() *cobra.Command {
	var pluginDir, importersDir string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print every registered service's methods as MCP tool definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newDemoEngine(pluginDir, importersDir)
			if err != nil {
				return err
			}
			for _, tool := range eng.Services().AllTools() {
				cmd.Printf("%s: %s\n", tool.Name, tool.Description)
			}
			return nil
		},
	}
	servicesFlags(cmd, &pluginDir, &importersDir)
	return cmd
}
