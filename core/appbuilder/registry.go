package appbuilder

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/LeoRoessmann/KT-course/core"
)

const (
	// DefaultAssignment is used when neither an override nor active.json names one.
	DefaultAssignment = "user_template"
	ActiveFile        = "active.json"
)

var (
	ErrUnknownAssignment   = errors.New("unknown assignment")
	ErrDuplicateAssignment = errors.New("assignment already registered")
)

// Assignment is the domain logic of one exercise.
type Assignment interface {
	Run(ctx context.Context, b *Binding) error
}

// AssignmentFunc adapts a function to Assignment.
type AssignmentFunc func(ctx context.Context, b *Binding) error

func (f AssignmentFunc) Run(ctx context.Context, b *Binding) error { return f(ctx, b) }

type activeAssignment struct {
	Assignment string `json:"assignment"`
}

// AssignmentRegistry holds the assignments registered at start-up and the
// persisted choice of the active one.
type AssignmentRegistry struct {
	mu          sync.RWMutex
	assignments map[string]Assignment
	activePath  string
	log         core.Logger
}

// NewAssignmentRegistry keeps the active choice in <dir>/active.json.
func NewAssignmentRegistry(dir string, log core.Logger) *AssignmentRegistry {
	return &AssignmentRegistry{
		assignments: make(map[string]Assignment),
		activePath:  filepath.Join(dir, ActiveFile),
		log:         log,
	}
}

func (r *AssignmentRegistry) Register(name string, a Assignment) error {
	name = strings.TrimSpace(name)
	if name == "" || a == nil {
		return core.NewValidationError(nil, core.FieldError{Field: "assignment", Error: "name and assignment are required"})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[name]; ok {
		return errors.Wrap(ErrDuplicateAssignment, name)
	}
	r.assignments[name] = a
	return nil
}

// MustRegister is Register for start-up code; it panics on error.
func (r *AssignmentRegistry) MustRegister(name string, a Assignment) {
	if err := r.Register(name, a); err != nil {
		panic(err)
	}
}

// List returns the registered names, sorted.
func (r *AssignmentRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.assignments))
	for name := range r.assignments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ActiveName resolves the active assignment: override > active.json > default.
func (r *AssignmentRegistry) ActiveName(override string) string {
	if name := strings.TrimSpace(override); name != "" {
		return name
	}
	var stored activeAssignment
	if err := core.ReadJSONFile(r.activePath, &stored); err != nil {
		r.log.Warn("ignoring active assignment file", err, core.Fields{"path": r.activePath})
	} else if name := strings.TrimSpace(stored.Assignment); name != "" {
		return name
	}
	return DefaultAssignment
}

// Get returns the active assignment.
func (r *AssignmentRegistry) Get(override string) (Assignment, string, bool) {
	name := r.ActiveName(override)
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assignments[name]
	return a, name, ok
}

// SetActive persists name as the active assignment.
func (r *AssignmentRegistry) SetActive(name string) error {
	name = strings.TrimSpace(name)
	r.mu.RLock()
	_, ok := r.assignments[name]
	r.mu.RUnlock()
	if !ok {
		return errors.Wrap(ErrUnknownAssignment, name)
	}
	return core.WriteJSONFile(r.activePath, activeAssignment{Assignment: name})
}

// Run executes the active assignment against b.
func (r *AssignmentRegistry) Run(ctx context.Context, b *Binding, override string) error {
	a, name, ok := r.Get(override)
	if !ok {
		return errors.Wrap(ErrUnknownAssignment, name)
	}
	return errors.Wrapf(a.Run(ctx, b), "running assignment %s", name)
}
