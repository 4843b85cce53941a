package appbuilder

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/LeoRoessmann/KT-course/core"
)

// State maps widget path ids to their current values.
type State map[string]interface{}

func (s State) Clone() State {
	cp := make(State, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// StateDefaults returns the initial state of every widget: its default prop,
// else a zero value by widget type.
func StateDefaults(l *Layout) State {
	defaults := make(State)
	l.Walk(func(id string, w Widget) {
		if v, ok := w.Props[PropDefault]; ok {
			defaults[id] = normalizeNumber(v)
			return
		}
		defaults[id] = zeroValue(w.Type)
	})
	return defaults
}

func zeroValue(widgetType string) interface{} {
	switch widgetType {
	case WidgetMarkdown, WidgetText:
		return ""
	case WidgetSlider, WidgetNumber, WidgetVUMeter:
		return 0.0
	case WidgetLED:
		return false
	default:
		return nil
	}
}

// Coerce converts value to the kind of def when def is numeric: empty or
// unparsable input falls back to def and integer defaults truncate.
// Non-numeric defaults pass value through unchanged.
func Coerce(value, def interface{}) interface{} {
	switch d := def.(type) {
	case float64:
		if f, ok := toFloat(value); ok {
			return f
		}
		return d
	case int64:
		if f, ok := toFloat(value); ok {
			return int64(f)
		}
		return d
	case int:
		if f, ok := toFloat(value); ok {
			return int64(f)
		}
		return int64(d)
	}
	return value
}

// toFloat accepts finite numbers only; NaN and infinities cannot be stored as JSON.
func toFloat(v interface{}) (float64, bool) {
	f, ok := anyToFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func anyToFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// LoadState starts from defaults and applies the values stored at path.
// Keys that are not in defaults are dropped; a missing file yields the defaults.
func LoadState(path string, defaults State) (State, error) {
	state := defaults.Clone()
	stored := make(map[string]interface{})
	if err := core.ReadJSONFile(path, &stored); err != nil {
		return state, err
	}
	for k, v := range stored {
		if def, ok := state[k]; ok {
			state[k] = Coerce(v, def)
		}
	}
	return state, nil
}

func SaveState(path string, s State) error {
	return core.WriteJSONFile(path, s)
}
