package appbuilder

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Callback reacts to a widget change. value is already coerced to the
// widget's state kind.
type Callback func(ctx context.Context, b *Binding, value interface{}) error

// CallbackRegistry maps widget path ids to callbacks.
type CallbackRegistry struct {
	mu        sync.RWMutex
	callbacks map[string]Callback
}

func NewCallbackRegistry() *CallbackRegistry {
	return &CallbackRegistry{callbacks: make(map[string]Callback)}
}

// BindCallbacks wires each input widget of l to the callback named by
// CollectCallbackNames. Widgets whose callback is not in named stay unbound;
// their names are returned as missing.
func BindCallbacks(l *Layout, named map[string]Callback) (reg *CallbackRegistry, missing []string) {
	reg = NewCallbackRegistry()
	names := l.CollectCallbackNames()
	for _, pathID := range SortedKeys(names) {
		if cb, ok := named[names[pathID]]; ok {
			reg.Register(pathID, cb)
		} else {
			missing = append(missing, names[pathID])
		}
	}
	return reg, missing
}

func (r *CallbackRegistry) Register(pathID string, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[pathID] = cb
}

func (r *CallbackRegistry) Lookup(pathID string) (Callback, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cb, ok := r.callbacks[pathID]
	return cb, ok
}

// PathIDs returns the path ids that have a callback, sorted.
func (r *CallbackRegistry) PathIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.callbacks))
	for id := range r.callbacks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dispatch runs the callback of pathID. It reports false when none is registered.
func (r *CallbackRegistry) Dispatch(ctx context.Context, b *Binding, pathID string, value interface{}) (bool, error) {
	cb, ok := r.Lookup(pathID)
	if !ok {
		return false, nil
	}
	if err := cb(ctx, b, value); err != nil {
		return true, errors.Wrapf(err, "callback for %s", pathID)
	}
	return true, nil
}
