package enginecoreed

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/forgecore/enginecore/internal/diagnostics"
)

func newPluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect shared-library plugins",
	}
	cmd.AddCommand(newPluginsListCmd())
	return cmd
}

func newPluginsListCmd() *cobra.Command {
	var pluginDir, importersDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Load every plugin in the given directories and print the loaded set",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pluginDir == "" && importersDir == "" {
				return fmt.Errorf("at least one of --plugin-dir or --importers-dir is required")
			}

			eng, err := newDemoEngine("", "")
			if err != nil {
				return err
			}

			s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
			s.Suffix = " scanning for plugins..."
			s.Start()
			defer s.Stop()

			if pluginDir != "" {
				if err := eng.Plugins().LoadDir(pluginDir); err != nil {
					return err
				}
			}
			if importersDir != "" {
				if err := eng.Plugins().LoadImportersDir(importersDir); err != nil {
					return err
				}
			}

			s.Stop()
			cmd.Print(diagnostics.RenderPlugins(eng.Plugins().Loaded()))
			return nil
		},
	}

	cmd.Flags().StringVar(&pluginDir, "plugin-dir", "", "directory of *.so plugins to load")
	cmd.Flags().StringVar(&importersDir, "importers-dir", "", "directory of *.so asset-importer plugins to load")
	return cmd
}
