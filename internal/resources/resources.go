// Package resources implements the engine's typed singleton store and
// named-API registry. Both maps are engine-thread-local: a *Resources
// must never be shared across goroutines.
package resources

import (
	"reflect"

	"github.com/forgecore/enginecore/internal/enginerr"
)

// Resources is the two-map container described in the module contract:
// a type-keyed map of singletons and a string-keyed map of "named APIs".
// Neither map is safe for concurrent access.
type Resources struct {
	typed map[reflect.Type]any
	apis  map[string]any
}

// New returns an empty Resources store.
func New() *Resources {
	return &Resources{
		typed: make(map[reflect.Type]any),
		apis:  make(map[string]any),
	}
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Insert stores value under its static type, replacing any existing
// value of that type.
func Insert[T any](r *Resources, value T) {
	r.typed[typeKey[T]()] = value
}

// InsertOnce stores value under its static type, failing if a value of
// that type is already present.
func InsertOnce[T any](r *Resources, value T) error {
	k := typeKey[T]()
	if _, ok := r.typed[k]; ok {
		return enginerr.New(enginerr.KindAlreadyExists, "resource already exists: "+k.String())
	}
	r.typed[k] = value
	return nil
}

// Get returns the stored value of type T, if any.
func Get[T any](r *Resources) (T, bool) {
	v, ok := r.typed[typeKey[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Remove deletes and returns the stored value of type T, if any.
func Remove[T any](r *Resources) (T, bool) {
	k := typeKey[T]()
	v, ok := r.typed[k]
	if !ok {
		var zero T
		return zero, false
	}
	delete(r.typed, k)
	return v.(T), true
}

// TakeRequired removes and returns the stored value of type T, returning
// a structured NotFound error (mentioning name) if absent.
func TakeRequired[T any](r *Resources, name string) (T, error) {
	v, ok := Remove[T](r)
	if !ok {
		var zero T
		return zero, enginerr.New(enginerr.KindNotFound, "required resource missing: "+name)
	}
	return v, nil
}

// GetRequired returns the stored value of type T without removing it,
// returning a structured NotFound error (mentioning name) if absent.
func GetRequired[T any](r *Resources, name string) (T, error) {
	v, ok := Get[T](r)
	if !ok {
		var zero T
		return zero, enginerr.New(enginerr.KindNotFound, "required resource missing: "+name)
	}
	return v, nil
}

/* Named APIs (string id) */

// RegisterAPI stores api under the given static string id, failing if
// that id is already registered.
func (r *Resources) RegisterAPI(id string, api any) error {
	if _, ok := r.apis[id]; ok {
		return enginerr.AlreadyExists(id, "api already registered")
	}
	r.apis[id] = api
	return nil
}

// API returns the value registered under id, if it has the requested
// type T.
func API[T any](r *Resources, id string) (T, bool) {
	v, ok := r.apis[id]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return t, true
}

// APIRequired returns the value registered under id, returning a
// structured NotFound error (mentioning id) if absent or of the wrong type.
func APIRequired[T any](r *Resources, id string) (T, error) {
	v, ok := API[T](r, id)
	if !ok {
		var zero T
		return zero, enginerr.New(enginerr.KindNotFound, "required api missing: "+id)
	}
	return v, nil
}

// HasAPI reports whether id is registered, regardless of type.
func (r *Resources) HasAPI(id string) bool {
	_, ok := r.apis[id]
	return ok
}

// UnregisterAPI removes and returns the value registered under id.
func (r *Resources) UnregisterAPI(id string) (any, bool) {
	v, ok := r.apis[id]
	if !ok {
		return nil, false
	}
	delete(r.apis, id)
	return v, true
}
