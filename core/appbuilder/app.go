package appbuilder

import (
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/LeoRoessmann/KT-course/core"
)

// Files of an app directory.
const (
	LayoutFile       = "layout.json"
	SessionStateFile = "session_state.json"
	AssignmentsDir   = "assignments"
)

// App bundles the runtime of one app directory.
type App struct {
	Dir         string
	Layout      *Layout
	Callbacks   *CallbackRegistry
	Assignments *AssignmentRegistry
	Sessions    *Sessions
}

// Open loads <dir>/layout.json, seeding it with fallback when missing, and
// wires the named callbacks to the layout's widgets.
func Open(dir string, fallback *Layout, named map[string]Callback, assignments *AssignmentRegistry, validate *validator.Validate, log core.Logger) (*App, error) {
	layoutPath := filepath.Join(dir, LayoutFile)
	if _, err := os.Stat(layoutPath); os.IsNotExist(err) && fallback != nil {
		if err := SaveLayout(layoutPath, fallback); err != nil {
			return nil, err
		}
		log.Info("created app layout", core.Fields{"path": layoutPath})
	}

	layout, err := LoadLayout(layoutPath, validate)
	if err != nil {
		return nil, err
	}

	callbacks, missing := BindCallbacks(layout, named)
	for _, name := range missing {
		log.Debug("widget callback not implemented", core.Fields{"callback": name})
	}

	return &App{
		Dir:         dir,
		Layout:      layout,
		Callbacks:   callbacks,
		Assignments: assignments,
		Sessions:    NewSessions(layout, callbacks, assignments, filepath.Join(dir, SessionStateFile), log),
	}, nil
}

// AssignmentsPath returns <dir>/assignments, where active.json lives.
func AssignmentsPath(dir string) string {
	return filepath.Join(dir, AssignmentsDir)
}
