// Package assetstore implements the engine's importer-driven asset
// pipeline: a request queue, a deterministic per-extension importer
// index, and a bounded-work pump that turns queued logical-path loads
// into immutable AssetBlobs.
package assetstore

import (
	"sort"
	"sync"
	"time"

	"github.com/forgecore/enginecore/internal/enginerr"
)

type pendingRequest struct {
	id  AssetId
	key AssetKey
}

// Store is the engine's asset pipeline. All exported methods are safe
// for concurrent use; the interior mutex is held only for the minimum
// interval needed, and Pump releases it around the source read and the
// importer call so registration/state queries stay responsive.
type Store struct {
	mu sync.Mutex

	sources   []Source
	importers map[string][]ImporterBinding // extension -> bindings, sorted

	state   map[AssetId]AssetState
	failMsg map[AssetId]string
	blobs   map[AssetId]*AssetBlob

	queue  []pendingRequest
	events []AssetEvent

	stats Stats
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		importers: make(map[string][]ImporterBinding),
		state:     make(map[AssetId]AssetState),
		failMsg:   make(map[AssetId]string),
		blobs:     make(map[AssetId]*AssetBlob),
	}
}

// AddSource appends source to the end of the source list.
func (s *Store) AddSource(source Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, source)
}

// AddImporter registers importer for extension (normalized lowercase, no
// leading dot) and re-sorts that extension's bucket: priority descending,
// ties broken by stable_id ascending (byte-wise).
func (s *Store) AddImporter(extension string, importer Importer, priority int32, stableID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	binding := ImporterBinding{
		Extension:    extension,
		Importer:     importer,
		Priority:     priority,
		StableID:     stableID,
		OutputTypeID: importer.OutputTypeID(),
	}

	bucket := append(s.importers[extension], binding)
	sort.SliceStable(bucket, func(i, j int) bool {
		if bucket[i].Priority != bucket[j].Priority {
			return bucket[i].Priority > bucket[j].Priority
		}
		return bucket[i].StableID < bucket[j].StableID
	})
	s.importers[extension] = bucket
}

// ImporterBindings returns a snapshot of every registered binding,
// deterministically ordered by (extension asc, priority desc, stable_id
// asc).
func (s *Store) ImporterBindings() []ImporterBinding {
	s.mu.Lock()
	defer s.mu.Unlock()

	exts := make([]string, 0, len(s.importers))
	for ext := range s.importers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	var out []ImporterBinding
	for _, ext := range exts {
		out = append(out, s.importers[ext]...)
	}
	return out
}

// State returns the current AssetState of id. Unregistered ids are
// Unloaded.
func (s *Store) State(id AssetId) AssetState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state[id]
}

// GetBlob returns the blob stored for id, if its state is Ready.
func (s *Store) GetBlob(id AssetId) (*AssetBlob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[id]
	return b, ok
}

// DrainEvents removes and returns every queued event, in FIFO order.
func (s *Store) DrainEvents() []AssetEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out
}

// QueueLen returns the number of requests still pending.
func (s *Store) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Load enqueues key for loading and returns its AssetId immediately.
// Idempotent: if the id's state is already Ready, Loading, or Failed, the
// id is returned unchanged without touching the queue (Failed is not
// auto-retried; use ReloadPath). If no importer is registered for the
// key's extension, returns ImporterMissing synchronously and the id's
// state remains Unloaded.
func (s *Store) Load(key AssetKey) (AssetId, error) {
	id := key.Id()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state[id] {
	case Ready, Loading, Failed:
		return id, nil
	}

	ext := key.Extension()
	bucket := s.importers[ext]
	if len(bucket) == 0 {
		return id, enginerr.ImporterMissing(ext)
	}

	s.state[id] = Loading
	s.queue = append(s.queue, pendingRequest{id: id, key: key})
	return id, nil
}

// ReloadPath clears any cached blob for key's id, resets its state to
// Unloaded, and enqueues a fresh load — without consulting the existing
// queue for an in-flight request with the same id (see SPEC_FULL.md §11
// for why this mirrors the original's ambiguous behavior rather than
// de-duplicating).
func (s *Store) ReloadPath(key AssetKey) (AssetId, error) {
	id := key.Id()

	s.mu.Lock()
	delete(s.blobs, id)
	delete(s.state, id)
	delete(s.failMsg, id)
	s.mu.Unlock()

	return s.Load(key)
}

// Pump processes up to budget.Steps queued requests, reading bytes from
// the first matching source and invoking the selected importer for each.
// Successful imports store the blob, set state Ready, and emit a Ready
// event; failures set state Failed and emit a Failed event. A budget of
// zero performs no work and produces no events.
func (s *Store) Pump(budget PumpBudget) {
	for i := uint32(0); i < budget.Steps; i++ {
		req, ok := s.popRequest()
		if !ok {
			return
		}
		s.processOne(req)
	}
}

func (s *Store) popRequest() (pendingRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return pendingRequest{}, false
	}
	req := s.queue[0]
	s.queue = s.queue[1:]
	return req, true
}

func (s *Store) processOne(req pendingRequest) {
	ioStart := time.Now()
	bytes, err := s.readFromAnySource(req.key.LogicalPath)
	ioElapsed := time.Since(ioStart)

	if err != nil {
		s.fail(req, err)
		return
	}

	importStart := time.Now()
	blob, err := s.importWithRegistered(req, bytes)
	importElapsed := time.Since(importStart)

	s.mu.Lock()
	s.stats.BytesRead += uint64(len(bytes))
	s.stats.IOMicros += uint64(ioElapsed.Microseconds())
	s.stats.ImportMicros += uint64(importElapsed.Microseconds())
	s.mu.Unlock()

	if err != nil {
		s.fail(req, err)
		return
	}

	s.mu.Lock()
	s.blobs[req.id] = blob
	s.state[req.id] = Ready
	s.stats.TotalLoaded++
	s.events = append(s.events, AssetEvent{Kind: EventReady, ID: req.id, TypeID: blob.TypeID, Format: blob.Format})
	s.mu.Unlock()
}

func (s *Store) fail(req pendingRequest, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[req.id] = Failed
	s.failMsg[req.id] = err.Error()
	s.events = append(s.events, AssetEvent{Kind: EventFailed, ID: req.id, Err: err})
}

func (s *Store) readFromAnySource(logicalPath string) ([]byte, error) {
	s.mu.Lock()
	sources := append([]Source(nil), s.sources...)
	s.mu.Unlock()

	if len(sources) == 0 {
		return nil, enginerr.IoFailed("no sources registered")
	}

	for _, src := range sources {
		if src.Exists(logicalPath) {
			b, err := src.Read(logicalPath)
			if err != nil {
				return nil, enginerr.IoFailed(err.Error())
			}
			return b, nil
		}
	}
	return nil, enginerr.NotFound(logicalPath, "asset not found in any source")
}

func (s *Store) importWithRegistered(req pendingRequest, bytes []byte) (*AssetBlob, error) {
	ext := req.key.Extension()

	s.mu.Lock()
	bucket := append([]ImporterBinding(nil), s.importers[ext]...)
	s.mu.Unlock()

	if len(bucket) == 0 {
		return nil, enginerr.ImporterMissing(ext)
	}

	binding := bucket[0]
	blob, err := binding.Importer.Import(bytes, req.key)
	if err != nil {
		return nil, enginerr.ImporterFailed(err.Error())
	}
	return blob, nil
}

// StatsSnapshot returns a point-in-time diagnostic summary of store
// activity.
func (s *Store) StatsSnapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.stats
	out.QueueLen = len(s.queue)
	for _, st := range s.state {
		switch st {
		case Ready:
			out.ReadyCount++
		case Failed:
			out.FailedCount++
		case Loading:
			out.LoadingCount++
		}
	}
	return out
}

// ListSnapshot returns up to limit (id, state) pairs for diagnostics,
// sorted by id for determinism. limit<=0 means unlimited.
func (s *Store) ListSnapshot(limit int) []ListRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ListRow, 0, len(s.state))
	for id, st := range s.state {
		out = append(out, ListRow{ID: id, State: st})
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i].ID[:]) < string(out[j].ID[:])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FailureMessage returns the stored error message for a Failed id, if
// any.
func (s *Store) FailureMessage(id AssetId) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.failMsg[id]
	return msg, ok
}
