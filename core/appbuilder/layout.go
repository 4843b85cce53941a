// Package appbuilder runs layout-driven lab apps: a JSON layout of widget rows,
// per-session state keyed by widget path ids, a semantic binding from logical
// names to widgets, and callbacks that call into registered assignments.
package appbuilder

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/LeoRoessmann/KT-course/core"
)

// Widget types known to the runtime.
const (
	WidgetMarkdown = "markdown"
	WidgetSlider   = "slider"
	WidgetNumber   = "number"
	WidgetText     = "text"
	WidgetLED      = "led"
	WidgetVUMeter  = "vu_meter"
	WidgetPlot     = "plot"
	WidgetButton   = "button"
	WidgetHeader   = "header"

	// widget props
	PropUserID   = "user_id"
	PropDefault  = "default"
	PropCallback = "callback"
)

type (
	Widget struct {
		ID    string                 `json:"id" validate:"required"`
		Type  string                 `json:"type" validate:"required,oneof=markdown slider number text led vu_meter plot button header"`
		Label string                 `json:"label,omitempty"`
		Props map[string]interface{} `json:"props,omitempty"`
	}

	Row struct {
		Widgets []Widget `json:"widgets" validate:"dive"`
	}

	Layout struct {
		Title      string                 `json:"title"`
		Appearance map[string]interface{} `json:"appearance"`
		Rows       []Row                  `json:"rows" validate:"dive"`
	}
)

// PathID is the stable address of a widget: row_<index>.<widget id>.
func PathID(row int, widgetID string) string {
	return "row_" + strconv.Itoa(row) + "." + widgetID
}

// StringProp returns props[name] as a trimmed string.
func (w Widget) StringProp(name string) string {
	v, ok := w.Props[name]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// LoadLayout reads and validates a layout file.
func LoadLayout(path string, validate *validator.Validate) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening layout")
	}
	defer f.Close()
	return ParseLayout(f, validate)
}

// ParseLayout decodes a layout. Numeric props are kept as json.Number so that
// "1.0" and "1" survive a save unchanged.
func ParseLayout(r io.Reader, validate *validator.Validate) (*Layout, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var l Layout
	if err := dec.Decode(&l); err != nil {
		return nil, errors.Wrap(err, "decoding layout")
	}
	if l.Appearance == nil {
		l.Appearance = make(map[string]interface{})
	}
	if err := l.Validate(validate); err != nil {
		return nil, err
	}
	return &l, nil
}

// Validate checks widget fields and that every path id is unique.
func (l *Layout) Validate(validate *validator.Validate) error {
	if err := validate.Struct(l); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "layout", Error: err.Error()})
	}
	seen := make(map[string]bool)
	for _, id := range l.PathIDs() {
		if seen[id] {
			return core.NewValidationError(nil, core.FieldError{Field: id, Error: "duplicate widget id"})
		}
		seen[id] = true
	}
	return nil
}

// SaveLayout writes l as indented JSON.
func SaveLayout(path string, l *Layout) error {
	return core.WriteJSONFile(path, l)
}

// Encode returns l as compact JSON.
func (l *Layout) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(l); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

// Walk calls fn for every widget in row order.
func (l *Layout) Walk(fn func(pathID string, w Widget)) {
	for ri, row := range l.Rows {
		for _, w := range row.Widgets {
			fn(PathID(ri, w.ID), w)
		}
	}
}

// PathIDs returns every widget path id in layout order.
func (l *Layout) PathIDs() []string {
	var ids []string
	l.Walk(func(id string, _ Widget) { ids = append(ids, id) })
	return ids
}

func (l *Layout) WidgetByPathID(pathID string) (Widget, bool) {
	var (
		found Widget
		ok    bool
	)
	l.Walk(func(id string, w Widget) {
		if !ok && id == pathID {
			found, ok = w, true
		}
	})
	return found, ok
}

// CollectSemanticBinding maps each non-empty user_id prop to its widget's path id.
func (l *Layout) CollectSemanticBinding() map[string]string {
	binding := make(map[string]string)
	l.Walk(func(id string, w Widget) {
		if uid := w.StringProp(PropUserID); uid != "" {
			binding[uid] = id
		}
	})
	return binding
}

// CollectCallbackNames maps each input widget's path id to its callback name:
// the callback prop, else on_<user_id>_change, else on_<path id>_change.
func (l *Layout) CollectCallbackNames() map[string]string {
	names := make(map[string]string)
	l.Walk(func(id string, w Widget) {
		if !isInput(w.Type) {
			return
		}
		names[id] = CallbackName(id, w)
	})
	return names
}

// CallbackName derives the callback name of a widget.
func CallbackName(pathID string, w Widget) string {
	if name := w.StringProp(PropCallback); name != "" {
		return name
	}
	base := w.StringProp(PropUserID)
	if base == "" {
		base = pathID
	}
	return "on_" + identifier(base) + "_change"
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isInput(widgetType string) bool {
	switch widgetType {
	case WidgetMarkdown, WidgetSlider, WidgetNumber, WidgetText, WidgetButton:
		return true
	}
	return false
}

func identifier(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, s)
}

// normalizeNumber turns a json.Number into int64 for integer literals and
// float64 otherwise.
func normalizeNumber(v interface{}) interface{} {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if !strings.ContainsAny(n.String(), ".eE") {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
