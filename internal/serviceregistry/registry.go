// Package serviceregistry holds every service a plugin has registered
// with the host, keyed by ServiceID, and bridges services whose
// descriptor identifies them as asset importers into the asset store.
package serviceregistry

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/forgecore/enginecore/internal/enginerr"
)

// ServiceID is a non-empty, trimmed service identifier.
type ServiceID string

// Service is the contract every plugin-registered capability implements:
// an id, a JSON self-description, and an opaque (method, payload) call.
type Service interface {
	ID() string
	Describe() string
	Call(method string, payload []byte) ([]byte, error)
}

// MethodDescriptor documents one callable method of a service.
type MethodDescriptor struct {
	Name    string `json:"name"`
	Payload string `json:"payload,omitempty"`
	Returns string `json:"returns,omitempty"`
}

// AssetImporterDescriptor is the asset_importer sub-object present when a
// service's Descriptor.Kind is exactly "asset_importer".
type AssetImporterDescriptor struct {
	Extensions   []string `json:"extensions"`
	OutputTypeID string   `json:"output_type_id"`
	Format       string   `json:"format"`
	Method       string   `json:"method"`
	Wire         string   `json:"wire"`
	Priority     int32    `json:"priority"`
}

// Descriptor is the parsed form of a service's describe() JSON document.
type Descriptor struct {
	ID            string                   `json:"id"`
	Kind          string                   `json:"kind"`
	Methods       []MethodDescriptor       `json:"methods,omitempty"`
	MetaSchema    json.RawMessage          `json:"meta_schema,omitempty"`
	Console       json.RawMessage          `json:"console,omitempty"`
	AssetImporter *AssetImporterDescriptor `json:"asset_importer,omitempty"`
}

// WireV1 is the only wire tag this registry understands when bridging an
// asset_importer-kind service into the asset store.
const WireV1 = "u32_meta_len_le"

// ParseDescriptor parses a service's describe() output. Missing id/kind
// is an InvalidInput error.
func ParseDescriptor(describeJSON string) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal([]byte(describeJSON), &d); err != nil {
		return nil, enginerr.InvalidInput("malformed service descriptor: " + err.Error())
	}
	if strings.TrimSpace(d.ID) == "" {
		return nil, enginerr.InvalidInput("service descriptor missing id")
	}
	if strings.TrimSpace(d.Kind) == "" {
		return nil, enginerr.InvalidInput("service descriptor missing kind")
	}
	return &d, nil
}

// Entry is the registry's internal record for one registered service.
type Entry struct {
	ID            ServiceID
	Service       Service
	DescribeJSON  string
	Descriptor    *Descriptor
	OwnerPluginID string
	Generation    uint64
}

// Snapshot is a copyable, ABI-object-free view of an Entry, for
// diagnostics/console use.
type Snapshot struct {
	ID           string
	Kind         string
	DescribeJSON string
	Generation   uint64
}

// Registry holds every registered service. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	byID       map[ServiceID]*Entry
	generation uint64
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{byID: make(map[ServiceID]*Entry)}
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[ServiceID(id)]
	return ok
}

// Register records svc under its own ID, parsing its descriptor. Returns
// AlreadyExists if the id is already registered, or the InvalidInput
// error from a malformed descriptor.
func (r *Registry) Register(svc Service, ownerPluginID string) (ServiceID, error) {
	raw := strings.TrimSpace(svc.ID())
	if raw == "" {
		return "", enginerr.InvalidInput("service id is empty")
	}
	id := ServiceID(raw)

	descJSON := svc.Describe()
	desc, err := ParseDescriptor(descJSON)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; exists {
		return "", enginerr.AlreadyExists(raw, "service already registered")
	}

	r.generation++
	r.byID[id] = &Entry{
		ID:            id,
		Service:       svc,
		DescribeJSON:  descJSON,
		Descriptor:    desc,
		OwnerPluginID: ownerPluginID,
		Generation:    r.generation,
	}
	return id, nil
}

// Get returns the service registered under id.
func (r *Registry) Get(id string) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[ServiceID(id)]
	if !ok {
		return nil, false
	}
	return e.Service, true
}

// GetEntry returns the full entry registered under id, including its
// parsed descriptor.
func (r *Registry) GetEntry(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[ServiceID(id)]
	return e, ok
}

// Call looks up id and invokes method with payload.
func (r *Registry) Call(id, method string, payload []byte) ([]byte, error) {
	svc, ok := r.Get(id)
	if !ok {
		return nil, enginerr.NotFound(id, "service not found")
	}
	return svc.Call(method, payload)
}

// Generation returns the current monotonically increasing registration
// counter, bumped on every successful Register.
func (r *Registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// Snapshot returns a sorted, cloneable view of every registered service.
func (r *Registry) Snapshot() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Snapshot, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, Snapshot{
			ID:           string(e.ID),
			Kind:         e.Descriptor.Kind,
			DescribeJSON: e.DescribeJSON,
			Generation:   e.Generation,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
