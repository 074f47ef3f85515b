package behavior

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry manages behavior loading and validation. All behaviors are
// eagerly loaded and validated at initialization; files that fail to
// parse or validate are tracked with their error instead of being
// silently dropped.
type Registry struct {
	mu            sync.RWMutex
	behaviorsPath string // Base path for behaviors (e.g., "behaviors/")

	// Pre-loaded behaviors (filename -> behavior)
	behaviors map[string]*Behavior

	// Validation errors (filename -> error)
	validationErrors map[string]error
}

// NewRegistry creates a registry and eagerly loads every .yaml/.yml file
// under the given directory.
func NewRegistry(behaviorsPath string) *Registry {
	r := &Registry{
		behaviorsPath:    behaviorsPath,
		behaviors:        make(map[string]*Behavior),
		validationErrors: make(map[string]error),
	}
	r.loadAll()
	return r
}

func (r *Registry) loadAll() {
	entries, err := os.ReadDir(r.behaviorsPath)
	if err != nil {
		// Missing directory means an empty registry; Get reports the
		// behavior as unknown.
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)

		b, err := LoadFromFile(filepath.Join(r.behaviorsPath, entry.Name()))
		if err != nil {
			r.validationErrors[name] = err
			continue
		}
		r.behaviors[name] = b
	}
}

// Reload re-reads a single behavior file and replaces the registry
// entry. Used by the driver's file watcher for hot swapping.
func (r *Registry) Reload(name string) (*Behavior, error) {
	path := filepath.Join(r.behaviorsPath, name+".yaml")
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(r.behaviorsPath, name+".yml")
	}

	b, err := LoadFromFile(path)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.validationErrors[name] = err
		return nil, err
	}
	r.behaviors[name] = b
	delete(r.validationErrors, name)
	return b, nil
}

// Get returns a loaded behavior by filename (without extension).
func (r *Registry) Get(name string) (*Behavior, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err, bad := r.validationErrors[name]; bad {
		return nil, fmt.Errorf("behavior '%s' failed validation: %w", name, err)
	}
	b, ok := r.behaviors[name]
	if !ok {
		return nil, fmt.Errorf("behavior '%s' not found in %s", name, r.behaviorsPath)
	}
	return b, nil
}

// Has reports whether a behavior was discovered, valid or not.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.behaviors[name]; ok {
		return true
	}
	_, bad := r.validationErrors[name]
	return bad
}

// ListValid returns the names of all valid behaviors, sorted.
func (r *Registry) ListValid() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.behaviors))
	for name := range r.behaviors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListInvalid returns the names of behaviors that failed validation,
// sorted.
func (r *Registry) ListInvalid() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.validationErrors))
	for name := range r.validationErrors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidationError returns the load error for a behavior, or nil.
func (r *Registry) ValidationError(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.validationErrors[name]
}
