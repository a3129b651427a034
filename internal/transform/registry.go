package transform

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	ferrors "git.home.luguber.info/inful/sitemirror/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemirror/internal/util/sets"
)

var (
	// ErrInvalidID indicates an empty or malformed transform identifier.
	ErrInvalidID = errors.New("invalid transform id")
	// ErrDuplicateID indicates an identifier is already registered.
	ErrDuplicateID = errors.New("transform id already registered")
	// ErrUnknownTransform indicates no transform is registered for an id.
	ErrUnknownTransform = errors.New("unknown transform")
)

// Registry maps lowercase transform identifiers to transforms. It is safe for
// concurrent use.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]Transform
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{transforms: make(map[string]Transform)}
}

// Register adds t under id, stored lowercased. The id must be a single
// extension segment. Lookups are exact, so files must use the lowercase form.
func (r *Registry) Register(id string, t Transform) error {
	if t == nil {
		return ferrors.ValidationError("nil transform").
			WithCause(ErrInvalidID).WithContext("transform", id).Build()
	}
	key := strings.ToLower(strings.TrimSpace(id))
	if key == "" || strings.ContainsAny(key, `./\`) {
		return ferrors.ValidationError("transform id must be one non-empty extension segment").
			WithCause(ErrInvalidID).WithContext("transform", id).Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.transforms[key]; exists {
		return ferrors.ValidationError("duplicate transform id").
			WithCause(ErrDuplicateID).WithContext("transform", key).Build()
	}
	r.transforms[key] = t
	return nil
}

// MustRegister is Register that panics on error, for static wiring.
func (r *Registry) MustRegister(id string, t Transform) {
	if err := r.Register(id, t); err != nil {
		panic(err)
	}
}

// Get returns the transform registered under id.
func (r *Registry) Get(id string) (Transform, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.transforms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, id)
	}
	return t, nil
}

// Has reports whether id is registered. It makes Registry a classify.Lookup.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.transforms[id]
	return ok
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := sets.New[string]()
	for id := range r.transforms {
		ids.Add(id)
	}
	return sets.Sorted(ids)
}
