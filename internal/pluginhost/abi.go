// Package pluginhost discovers and loads shared-library plugins, drives
// their lifecycle once per frame, and exposes the ABI-stable callback
// table plugins use to register services, call other services, and
// emit/subscribe to events.
package pluginhost

// PluginInfo is returned by a plugin-module's Info method once, right
// after construction.
type PluginInfo struct {
	ID      string
	Name    string
	Version string
}

// HostAPI is the struct-of-callbacks a plugin receives at Init. It is
// the Go analogue of the original's C-layout HostApiV1 vtable: the field
// set is fixed and additive-only across versions, so a plugin compiled
// against an older HostAPI still has every field it expects.
type HostAPI struct {
	LogInfo  func(msg string)
	LogWarn  func(msg string)
	LogError func(msg string)

	RegisterService func(svc Service) error
	CallService     func(serviceID, method string, payload []byte) ([]byte, error)

	EmitEvent       func(topic string, payload []byte) error
	SubscribeEvents func(sink EventSink) error
}

// Service is the shape a plugin-registered capability must satisfy to be
// accepted by RegisterService. It has exactly the method set of
// serviceregistry.Service, so any value satisfying one satisfies the
// other; the Manager hands plugin services straight to
// serviceregistry.Registry.Register.
type Service interface {
	ID() string
	Describe() string
	Call(method string, payload []byte) ([]byte, error)
}

// EventSink receives (topic, payload) pairs published via EmitEvent by
// any plugin, including ones other than the subscriber.
type EventSink interface {
	OnEvent(topic string, payload []byte)
}

// PluginModule is the lifecycle contract every loaded plugin root
// produces via Create(). Start runs once when the engine starts;
// FixedUpdate/Update/Render are driven every frame by the host in load
// order; Shutdown runs at teardown in reverse load order.
type PluginModule interface {
	Info() PluginInfo
	Init(host HostAPI) error
	Start() error
	FixedUpdate(dt float32) error
	Update(dt float32) error
	Render(dt float32) error
	Shutdown()
}

// PluginRoot is what a plugin's exported entry point symbol must yield:
// a factory for its PluginModule. Plugins export a single symbol named
// EntrySymbolName of type func() PluginRoot.
type PluginRoot interface {
	Create() PluginModule
}

// EntrySymbolName is the fixed exported symbol name every engine plugin
// must provide, analogous to the original's export_plugin_root.
const EntrySymbolName = "EngineCorePluginRoot"
