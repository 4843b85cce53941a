package appbuilder

import (
	"fmt"
	"sync"
)

// Output capabilities. A registered widget output implements the ones it
// supports; Set uses the first that applies in this order.
type (
	StateSetter interface {
		SetState(v interface{})
	}

	ValueSetter interface {
		SetValue(v float64)
	}

	ContentSetter interface {
		SetContent(s string)
	}

	FigureUpdater interface {
		UpdateFigure(fig Figure)
	}

	// InputSetter is an editable input mirroring a state value (e.g. a markdown textarea).
	InputSetter interface {
		SetInput(s string)
	}
)

// Figure is a plot update: traces plus optional layout and config.
type Figure struct {
	Data        []map[string]interface{} `json:"data"`
	Layout      map[string]interface{}   `json:"layout,omitempty"`
	Config      map[string]interface{}   `json:"config,omitempty"`
	RestyleOnly bool                     `json:"restyle_only,omitempty"`
}

// Binding is the per-session link between logical names (user ids) and
// widgets. Callbacks and assignments read and write values through it.
type Binding struct {
	mu      sync.RWMutex
	keys    map[string]string
	state   State
	outputs map[string]interface{}
	inputs  map[string]InputSetter
	order   []string
}

func NewBinding(state State) *Binding {
	if state == nil {
		state = make(State)
	}
	return &Binding{
		keys:    make(map[string]string),
		state:   state,
		outputs: make(map[string]interface{}),
		inputs:  make(map[string]InputSetter),
	}
}

// Update fills the binding from the layout's user_id props. Without merge the
// layout becomes the only source; with merge manual entries are kept.
func (b *Binding) Update(l *Layout, merge bool) {
	collected := l.CollectSemanticBinding()

	b.mu.Lock()
	defer b.mu.Unlock()
	if !merge {
		b.keys = make(map[string]string, len(collected))
	}
	for k, v := range collected {
		b.keys[k] = v
	}
}

// Bind maps key to pathID manually.
func (b *Binding) Bind(key, pathID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys[key] = pathID
}

func (b *Binding) PathID(key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	id, ok := b.keys[key]
	return id, ok && id != ""
}

// Keys returns a copy of the key → path id map.
func (b *Binding) Keys() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cp := make(map[string]string, len(b.keys))
	for k, v := range b.keys {
		cp[k] = v
	}
	return cp
}

// Register attaches the output for pathID. Registration order decides the
// plot fallback of UpdatePlot.
func (b *Binding) Register(pathID string, out interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.outputs[pathID]; !ok {
		b.order = append(b.order, pathID)
	}
	b.outputs[pathID] = out
}

func (b *Binding) RegisterInput(pathID string, in InputSetter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inputs[pathID] = in
}

// Get returns the value of key, or def when key is unbound or has no state.
func (b *Binding) Get(key string, def interface{}) interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	id, ok := b.keys[key]
	if !ok || id == "" {
		return def
	}
	v, ok := b.state[id]
	if !ok {
		return def
	}
	return v
}

// GetString returns the value of key formatted as text.
func (b *Binding) GetString(key string) string {
	return display(b.Get(key, nil))
}

// Set writes value to key's state and pushes it to the widget output and
// input. Unbound keys are ignored.
func (b *Binding) Set(key string, value interface{}) {
	id, ok := b.PathID(key)
	if !ok {
		return
	}
	b.SetPath(id, value)
}

// SetPath is Set addressed by path id.
func (b *Binding) SetPath(pathID string, value interface{}) {
	b.mu.Lock()
	b.state[pathID] = value
	out := b.outputs[pathID]
	in := b.inputs[pathID]
	b.mu.Unlock()

	text := display(value)
	switch o := out.(type) {
	case StateSetter:
		o.SetState(value)
	case ValueSetter:
		if f, ok := toFloat(value); ok {
			o.SetValue(f)
		}
	case ContentSetter:
		o.SetContent(text)
	}
	if in != nil {
		in.SetInput(text)
	}
}

// ClearMarkdown empties the markdown box bound to key.
func (b *Binding) ClearMarkdown(key string) {
	b.Set(key, "")
}

// UpdatePlot sends fig to the plot bound to key. When key is unbound or not a
// plot and fallbackToAny is set, the first registered plot gets it. It
// reports whether a plot was updated.
func (b *Binding) UpdatePlot(key string, fig Figure, fallbackToAny bool) bool {
	b.mu.RLock()
	var target FigureUpdater
	if id, ok := b.keys[key]; ok {
		if out, ok := b.outputs[id]; ok {
			target, _ = out.(FigureUpdater)
			if target == nil {
				b.mu.RUnlock()
				return false
			}
		}
	}
	if target == nil && fallbackToAny {
		for _, id := range b.order {
			if fu, ok := b.outputs[id].(FigureUpdater); ok {
				target = fu
				break
			}
		}
	}
	b.mu.RUnlock()

	if target == nil {
		return false
	}
	target.UpdateFigure(fig)
	return true
}

// State returns a copy of the current state.
func (b *Binding) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.Clone()
}

func display(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
