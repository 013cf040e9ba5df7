package enginecoreed

import (
	"github.com/forgecore/enginecore/internal/demomodules"
	"github.com/forgecore/enginecore/internal/engine"
	"github.com/forgecore/enginecore/pkg/enginelog"
)

const defaultFixedDTMillis = 16

// newDemoEngine builds an Engine at the default fixed timestep with the
// demo module set registered, optionally loading plugins from pluginDir
// and importersDir (either may be empty to skip).
func newDemoEngine(pluginDir, importersDir string) (*engine.Engine, error) {
	eng := engine.New(defaultFixedDTMillis)

	if err := eng.RegisterModule(&demomodules.Clock{}); err != nil {
		return nil, err
	}
	if err := eng.RegisterModule(&demomodules.Counter{}); err != nil {
		return nil, err
	}

	if pluginDir != "" {
		enginelog.Info("enginecoreed", "loading plugins from %s", pluginDir)
		if err := eng.Plugins().LoadDir(pluginDir); err != nil {
			return nil, err
		}
	}
	if importersDir != "" {
		enginelog.Info("enginecoreed", "loading importer plugins from %s", importersDir)
		if err := eng.Plugins().LoadImportersDir(importersDir); err != nil {
			return nil, err
		}
	}

	return eng, nil
}
