package pluginhost

import "sync"

// importerStage captures the services a plugin registers during the
// scoped window opened while loading the dedicated importers directory,
// without handing them to the shared registry yet. The original needs a
// thread-local for this (IMPORTER_LOAD_STATE) because a plugin's init may
// call back into the host from whatever thread the C ABI hands it. In Go,
// plugin loading is driven synchronously by a single goroutine end to
// end, so the thread-local collapses to a private field guarded by a
// mutex and released via defer on every exit path, including panics.
//
// Registration is staged rather than applied immediately because whether
// the plugin is accepted at all depends on what it registers: per §4.6.2,
// a plugin loaded from the dedicated importers directory that declares no
// asset_importer-kind service is rejected outright, and none of its
// services should land in the registry.
type importerStage struct {
	mu       sync.Mutex
	active   bool
	captured []Service
}

func (s *importerStage) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.captured = nil
}

func (s *importerStage) capture(svc Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.captured = append(s.captured, svc)
	}
}

// end closes the window and returns whatever was captured during it.
func (s *importerStage) end() []Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.captured
	s.active = false
	s.captured = nil
	return out
}

// withStaging runs fn with the staging window open and always closes it
// afterward, even if fn panics, returning whatever services were staged
// during the call.
func (m *Manager) withStaging(fn func() error) (captured []Service, err error) {
	m.stage.begin()
	defer func() { captured = m.stage.end() }()
	err = fn()
	return captured, err
}
