package pluginhost

import (
	"fmt"
	"path/filepath"
	goplugin "plugin"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/forgecore/enginecore/internal/assetstore"
	"github.com/forgecore/enginecore/internal/enginerr"
	"github.com/forgecore/enginecore/internal/eventhub"
	"github.com/forgecore/enginecore/internal/serviceregistry"
	"github.com/forgecore/enginecore/pkg/enginelog"
)

// TopicEvent is the single concrete event type plugin-to-plugin
// EmitEvent/SubscribeEvents traffic rides over the (typed) event hub.
// Plugins address each other by topic string, not by Go type, so the
// host funnels every plugin emission through this one wrapper.
type TopicEvent struct {
	Topic   string
	Payload []byte
}

type loadedPlugin struct {
	info   PluginInfo
	module PluginModule
	path   string
}

// Manager discovers shared-library plugins, loads them against an
// ABI-stable HostAPI, and drives their per-frame lifecycle in load
// order, shutting down in reverse order.
type Manager struct {
	registry *serviceregistry.Registry
	store    *assetstore.Store
	events   *eventhub.Hub

	stage importerStage

	plugins []*loadedPlugin
	subs    []func()

	loadsTotal    atomic.Uint64
	loadsFailed   atomic.Uint64
	loadsRejected atomic.Uint64
}

// NewManager wires a Manager to the shared registry, asset store, and
// event hub instances owned by the engine.
func NewManager(registry *serviceregistry.Registry, store *assetstore.Store, events *eventhub.Hub) *Manager {
	return &Manager{registry: registry, store: store, events: events}
}

// Loaded returns the PluginInfo of every successfully loaded plugin, in
// load order.
func (m *Manager) Loaded() []PluginInfo {
	out := make([]PluginInfo, 0, len(m.plugins))
	for _, p := range m.plugins {
		out = append(out, p.info)
	}
	return out
}

func candidatesIn(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.so"))
	if err != nil {
		return nil, enginerr.IoFailed(err.Error())
	}
	sort.Strings(matches)
	return matches, nil
}

// LoadDir loads every *.so file in dir, in sorted filename order, using
// the default host API: services a plugin registers land directly in the
// shared registry with no further bridging. A plugin whose load fails is
// logged and skipped; it never aborts the scan of the remaining
// candidates (per spec.md §7's propagation policy for plugin init
// failures). Only a directory-listing failure itself is returned as an
// error.
func (m *Manager) LoadDir(dir string) error {
	paths, err := candidatesIn(dir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		m.loadOne(path, false)
	}
	return nil
}

// LoadImportersDir loads every *.so file in dir the same way LoadDir
// does, except each plugin's Init runs with the importers-staging host
// API: every service it registers during Init is held back from the
// shared registry until Init returns. If none of the staged services
// declare kind="asset_importer", the whole plugin is rejected — its
// Shutdown is called and nothing it registered ever reaches the
// registry — so an ordinary plugin accidentally dropped into the
// importers/ directory cannot pollute it. Accepted plugins have every
// staged service registered normally, with asset-importer auto-
// registration applied to the ones that qualify. As with LoadDir, a
// single plugin failing or being rejected is logged and skipped, never
// aborting the scan.
func (m *Manager) LoadImportersDir(dir string) error {
	paths, err := candidatesIn(dir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		m.loadOne(path, true)
	}
	return nil
}

func (m *Manager) loadOne(path string, asImporter bool) {
	loadID := uuid.New().String()
	m.loadsTotal.Add(1)
	done := enginelog.StageTimer("pluginhost", "load")
	defer done()

	if err := m.loadOneOrErr(path, asImporter, loadID); err != nil {
		m.loadsFailed.Add(1)
		enginelog.Warn("pluginhost", "plugin load failed, skipping (load_id=%s path=%s): %v", loadID, path, err)
	}
}

func (m *Manager) loadOneOrErr(path string, asImporter bool, loadID string) error {
	lib, err := goplugin.Open(path)
	if err != nil {
		return enginerr.PluginLoadFailed(path, "open: "+err.Error())
	}

	sym, err := lib.Lookup(EntrySymbolName)
	if err != nil {
		return enginerr.PluginLoadFailed(path, "missing symbol "+EntrySymbolName+": "+err.Error())
	}

	entry, ok := sym.(func() PluginRoot)
	if !ok {
		return enginerr.PluginLoadFailed(path, "symbol "+EntrySymbolName+" has the wrong type")
	}

	module := entry().Create()
	info := module.Info()
	if info.ID == "" {
		return enginerr.PluginLoadFailed(path, "plugin returned empty id")
	}

	enginelog.Info("pluginhost", "loading plugin %q (load_id=%s path=%s)", info.ID, loadID, path)

	if asImporter {
		return m.loadImporterPlugin(path, module, info)
	}
	return m.loadOrdinaryPlugin(path, module, info)
}

func (m *Manager) loadOrdinaryPlugin(path string, module PluginModule, info PluginInfo) error {
	hostAPI := m.defaultHostAPI(info.ID)
	if err := module.Init(hostAPI); err != nil {
		return enginerr.PluginLoadFailed(path, fmt.Sprintf("init of %q: %s", info.ID, err.Error()))
	}

	m.plugins = append(m.plugins, &loadedPlugin{info: info, module: module, path: path})
	return nil
}

func (m *Manager) loadImporterPlugin(path string, module PluginModule, info PluginInfo) error {
	hostAPI := m.importersHostAPI(info.ID)

	staged, err := m.withStaging(func() error { return module.Init(hostAPI) })
	if err != nil {
		return enginerr.PluginLoadFailed(path, fmt.Sprintf("init of %q: %s", info.ID, err.Error()))
	}

	descs := make([]*serviceregistry.Descriptor, len(staged))
	hasImporter := false
	for i, svc := range staged {
		desc, err := serviceregistry.ParseDescriptor(svc.Describe())
		if err != nil {
			return enginerr.PluginLoadFailed(path, fmt.Sprintf("service %q from plugin %q: %s", svc.ID(), info.ID, err.Error()))
		}
		descs[i] = desc
		if desc.Kind == "asset_importer" {
			hasImporter = true
		}
	}

	if !hasImporter {
		m.loadsRejected.Add(1)
		module.Shutdown()
		enginelog.Info("pluginhost", "plugin %q rejected: no asset_importer service declared (path=%s)", info.ID, path)
		return nil
	}

	for _, svc := range staged {
		id, err := m.registry.Register(svc, info.ID)
		if err != nil {
			return enginerr.PluginLoadFailed(path, fmt.Sprintf("register service %q from plugin %q: %s", svc.ID(), info.ID, err.Error()))
		}
		if _, err := serviceregistry.AutoRegisterImporter(m.store, m.registry, string(id)); err != nil {
			return enginerr.PluginLoadFailed(path, fmt.Sprintf("auto-register importer for service %q: %s", id, err.Error()))
		}
	}

	m.plugins = append(m.plugins, &loadedPlugin{info: info, module: module, path: path})
	return nil
}

func (m *Manager) defaultHostAPI(pluginID string) HostAPI {
	return m.hostAPI(pluginID, false)
}

func (m *Manager) importersHostAPI(pluginID string) HostAPI {
	return m.hostAPI(pluginID, true)
}

func (m *Manager) hostAPI(pluginID string, stage bool) HostAPI {
	return HostAPI{
		LogInfo:  func(msg string) { enginelog.Info("plugin."+pluginID, "%s", msg) },
		LogWarn:  func(msg string) { enginelog.Warn("plugin."+pluginID, "%s", msg) },
		LogError: func(msg string) { enginelog.Error("plugin."+pluginID, nil, "%s", msg) },

		RegisterService: func(svc Service) error {
			if stage {
				m.stage.capture(svc)
				return nil
			}
			_, err := m.registry.Register(svc, pluginID)
			return err
		},

		CallService: func(serviceID, method string, payload []byte) ([]byte, error) {
			return m.registry.Call(serviceID, method, payload)
		},

		EmitEvent: func(topic string, payload []byte) error {
			eventhub.Publish(m.events, TopicEvent{Topic: topic, Payload: payload})
			return nil
		},

		SubscribeEvents: func(sink EventSink) error {
			sub := eventhub.Subscribe[TopicEvent](m.events)
			go func() {
				for v := range sub.Recv() {
					ev := v.(TopicEvent)
					sink.OnEvent(ev.Topic, ev.Payload)
				}
			}()
			m.subs = append(m.subs, sub.Close)
			return nil
		},
	}
}

func (m *Manager) forEachStage(stage enginerr.ModuleStage, fn func(PluginModule) error) error {
	for _, p := range m.plugins {
		if err := fn(p.module); err != nil {
			return enginerr.StageFailed(stage, fmt.Errorf("plugin %q: %w", p.info.ID, err))
		}
	}
	return nil
}

// StartAll calls Start on every loaded plugin, in load order.
func (m *Manager) StartAll() error {
	return m.forEachStage(enginerr.StageStart, func(p PluginModule) error { return p.Start() })
}

// FixedUpdateAll calls FixedUpdate on every loaded plugin, in load order.
func (m *Manager) FixedUpdateAll(dt float32) error {
	return m.forEachStage(enginerr.StageFixedUpdate, func(p PluginModule) error { return p.FixedUpdate(dt) })
}

// UpdateAll calls Update on every loaded plugin, in load order.
func (m *Manager) UpdateAll(dt float32) error {
	return m.forEachStage(enginerr.StageUpdate, func(p PluginModule) error { return p.Update(dt) })
}

// RenderAll calls Render on every loaded plugin, in load order.
func (m *Manager) RenderAll(dt float32) error {
	return m.forEachStage(enginerr.StageRender, func(p PluginModule) error { return p.Render(dt) })
}

// Shutdown calls Shutdown on every loaded plugin in reverse load order
// and closes every event subscription opened on a plugin's behalf.
// Individual plugin Shutdown implementations cannot fail; any panic
// recovery is the plugin's own responsibility.
func (m *Manager) Shutdown() {
	for i := len(m.plugins) - 1; i >= 0; i-- {
		m.plugins[i].module.Shutdown()
	}
	for _, closeSub := range m.subs {
		closeSub()
	}
	m.subs = nil
}

var (
	loadedDesc = prometheus.NewDesc(
		"enginecore_pluginhost_loaded_plugins",
		"Number of plugins currently loaded and active.",
		nil, nil,
	)
	loadAttemptsDesc = prometheus.NewDesc(
		"enginecore_pluginhost_load_attempts_total",
		"Total plugin load attempts, by outcome.",
		[]string{"outcome"}, nil,
	)
)

// Describe implements prometheus.Collector.
func (m *Manager) Describe(ch chan<- *prometheus.Desc) {
	ch <- loadedDesc
	ch <- loadAttemptsDesc
}

// Collect implements prometheus.Collector, sampling load counters and the
// currently-loaded plugin count on every scrape.
func (m *Manager) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(loadedDesc, prometheus.GaugeValue, float64(len(m.plugins)))
	ch <- prometheus.MustNewConstMetric(loadAttemptsDesc, prometheus.CounterValue, float64(m.loadsTotal.Load()), "total")
	ch <- prometheus.MustNewConstMetric(loadAttemptsDesc, prometheus.CounterValue, float64(m.loadsFailed.Load()), "failed")
	ch <- prometheus.MustNewConstMetric(loadAttemptsDesc, prometheus.CounterValue, float64(m.loadsRejected.Load()), "rejected")
}
