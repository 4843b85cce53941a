package launcher

import (
	"path/filepath"
	"sync"

	"github.com/LeoRoessmann/KT-course/core"
)

// ExpansionFile holds the open/closed state of the chapter sections.
const ExpansionFile = "launcher_expansion_state.json"

// ExpansionStore persists chapter title → open as one flat JSON object.
// Chapters without a stored value are open.
type ExpansionStore struct {
	path string
	log  core.Logger
	mu   sync.Mutex
}

func NewExpansionStore(suiteRoot string, log core.Logger) *ExpansionStore {
	return &ExpansionStore{path: filepath.Join(suiteRoot, ExpansionFile), log: log}
}

func (s *ExpansionStore) Path() string { return s.path }

// Load returns the stored states; a missing or corrupt file yields an empty map.
func (s *ExpansionStore) Load() map[string]bool {
	raw := make(map[string]interface{})
	if err := core.ReadJSONFile(s.path, &raw); err != nil {
		s.log.Warn("ignoring expansion state", err, core.Fields{"path": s.path})
		return map[string]bool{}
	}
	state := make(map[string]bool, len(raw))
	for title, v := range raw {
		state[title] = truthy(v)
	}
	return state
}

// IsOpen returns the stored state of title, defaulting to open.
func (s *ExpansionStore) IsOpen(title string) bool {
	open, ok := s.Load()[title]
	return !ok || open
}

// Set records the state of title, rewriting the whole file.
func (s *ExpansionStore) Set(title string, open bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.Load()
	state[title] = open
	if err := core.WriteJSONFile(s.path, state); err != nil {
		s.log.Error("saving expansion state", err, core.Fields{"path": s.path})
		return false
	}
	return true
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case nil:
		return false
	default:
		return true
	}
}
