package appbuilder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/LeoRoessmann/KT-course/core"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownWidget   = errors.New("unknown widget path id")
)

// Output is the last rendered value of one widget.
type Output struct {
	Type    string      `json:"type"`
	State   interface{} `json:"state,omitempty"`
	Value   *float64    `json:"value,omitempty"`
	Content *string     `json:"content,omitempty"`
	Input   *string     `json:"input,omitempty"`
	Figure  *Figure     `json:"figure,omitempty"`
}

// recorder keeps the outputs of one session.
type recorder struct {
	mu    sync.Mutex
	items map[string]Output
}

func (r *recorder) update(pathID string, fn func(o *Output)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.items[pathID]
	fn(&o)
	r.items[pathID] = o
}

func (r *recorder) snapshot() map[string]Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[string]Output, len(r.items))
	for k, v := range r.items {
		cp[k] = v
	}
	return cp
}

type (
	ledOutput struct {
		rec *recorder
		id  string
	}
	meterOutput struct {
		rec *recorder
		id  string
	}
	markdownOutput struct {
		rec *recorder
		id  string
	}
	plotOutput struct {
		rec *recorder
		id  string
	}
	textInput struct {
		rec *recorder
		id  string
	}
)

func (o ledOutput) SetState(v interface{}) {
	o.rec.update(o.id, func(out *Output) { out.State = v })
}

func (o meterOutput) SetValue(v float64) {
	o.rec.update(o.id, func(out *Output) { out.Value = &v })
}

func (o markdownOutput) SetContent(s string) {
	o.rec.update(o.id, func(out *Output) { out.Content = &s })
}

func (o plotOutput) UpdateFigure(fig Figure) {
	o.rec.update(o.id, func(out *Output) { out.Figure = &fig })
}

func (o textInput) SetInput(s string) {
	o.rec.update(o.id, func(out *Output) { out.Input = &s })
}

// Session is one client's view of the app.
type Session struct {
	ID      string
	Created time.Time

	mu      sync.Mutex
	binding *Binding
	rec     *recorder
}

func (s *Session) Binding() *Binding { return s.binding }

// Snapshot is the serializable state of a session.
type Snapshot struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	State      State             `json:"state"`
	Outputs    map[string]Output `json:"outputs"`
	Binding    map[string]string `json:"binding"`
	Assignment string            `json:"assignment"`
}

// Sessions owns the live sessions of one app. Every session starts from the
// persisted state and writes it back after each event.
type Sessions struct {
	mu          sync.RWMutex
	items       map[string]*Session
	layout      *Layout
	defaults    State
	callbacks   *CallbackRegistry
	assignments *AssignmentRegistry
	statePath   string
	log         core.Logger
}

func NewSessions(layout *Layout, callbacks *CallbackRegistry, assignments *AssignmentRegistry, statePath string, log core.Logger) *Sessions {
	return &Sessions{
		items:       make(map[string]*Session),
		layout:      layout,
		defaults:    StateDefaults(layout),
		callbacks:   callbacks,
		assignments: assignments,
		statePath:   statePath,
		log:         log,
	}
}

func (s *Sessions) Layout() *Layout                  { return s.layout }
func (s *Sessions) Assignments() *AssignmentRegistry { return s.assignments }
func (s *Sessions) Callbacks() *CallbackRegistry     { return s.callbacks }
func (s *Sessions) Defaults() State                  { return s.defaults.Clone() }

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Create opens a new session.
func (s *Sessions) Create() (Snapshot, error) {
	state, err := LoadState(s.statePath, s.defaults)
	if err != nil {
		s.log.Warn("ignoring stored session state", err, core.Fields{"path": s.statePath})
		state = s.defaults.Clone()
	}

	sess := &Session{
		ID:      uuid.New().String(),
		Created: time.Now().UTC(),
		binding: NewBinding(state),
		rec:     &recorder{items: make(map[string]Output)},
	}
	sess.binding.Update(s.layout, false)
	s.layout.Walk(func(id string, w Widget) {
		s.attach(sess, id, w, state[id])
	})

	s.mu.Lock()
	s.items[sess.ID] = sess
	s.mu.Unlock()
	return s.snapshot(sess), nil
}

// attach registers the output for a widget and renders its initial value.
func (s *Sessions) attach(sess *Session, id string, w Widget, initial interface{}) {
	b, rec := sess.binding, sess.rec
	rec.update(id, func(o *Output) { o.Type = w.Type })

	switch w.Type {
	case WidgetLED:
		out := ledOutput{rec: rec, id: id}
		b.Register(id, out)
		out.SetState(initial)
	case WidgetVUMeter:
		out := meterOutput{rec: rec, id: id}
		b.Register(id, out)
		if f, ok := toFloat(initial); ok {
			out.SetValue(f)
		}
	case WidgetMarkdown:
		out, in := markdownOutput{rec: rec, id: id}, textInput{rec: rec, id: id}
		b.Register(id, out)
		b.RegisterInput(id, in)
		out.SetContent(display(initial))
		in.SetInput(display(initial))
	case WidgetPlot:
		b.Register(id, plotOutput{rec: rec, id: id})
	case WidgetText:
		in := textInput{rec: rec, id: id}
		b.RegisterInput(id, in)
		in.SetInput(display(initial))
	}
}

func (s *Sessions) get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.items[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Snapshot returns the current state of session id.
func (s *Sessions) Snapshot(id string) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.snapshot(sess), nil
}

// Binding returns the binding of session id.
func (s *Sessions) Binding(id string) (*Binding, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return sess.binding, nil
}

// Event applies a widget change: the value is coerced to the widget's state
// kind, stored, passed to the widget's callback and persisted. Callback
// errors are returned together with the resulting snapshot.
func (s *Sessions) Event(ctx context.Context, id, pathID string, value interface{}) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	if _, ok := s.layout.WidgetByPathID(pathID); !ok {
		return Snapshot{}, errors.Wrap(ErrUnknownWidget, pathID)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	value = Coerce(value, s.defaults[pathID])
	sess.binding.SetPath(pathID, value)
	_, cbErr := s.callbacks.Dispatch(ctx, sess.binding, pathID, value)

	if err := SaveState(s.statePath, sess.binding.State()); err != nil {
		s.log.Error("saving session state", err, core.Fields{"path": s.statePath, "session": id})
	}
	return s.snapshot(sess), cbErr
}

// Close drops session id. It reports whether the session existed.
func (s *Sessions) Close(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok
}

func (s *Sessions) snapshot(sess *Session) Snapshot {
	return Snapshot{
		ID:         sess.ID,
		Title:      s.layout.Title,
		State:      sess.binding.State(),
		Outputs:    sess.rec.snapshot(),
		Binding:    sess.binding.Keys(),
		Assignment: s.assignments.ActiveName(""),
	}
}
