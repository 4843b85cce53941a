// Package assignments holds the exercises shipped with the app builder and
// the default app wired to them.
package assignments

import (
	"context"
	"encoding/json"

	"github.com/LeoRoessmann/KT-course/core/appbuilder"
)

// Logical widget names used by the default layout.
const (
	KeyHeader    = "header-text"
	KeyText      = "my_text"
	KeyCodeTable = "code_table"
	KeyCodeTree  = "code_tree"
	KeyPlot      = "freq_plot"
)

// Register adds the built-in assignments to reg.
func Register(reg *appbuilder.AssignmentRegistry) {
	reg.MustRegister(appbuilder.DefaultAssignment, appbuilder.AssignmentFunc(Huffman))
	reg.MustRegister("frequency", appbuilder.AssignmentFunc(Frequency))
}

// Callbacks returns the named widget callbacks of the default layout. Text
// changes run the active assignment.
func Callbacks(reg *appbuilder.AssignmentRegistry) map[string]appbuilder.Callback {
	noop := func(context.Context, *appbuilder.Binding, interface{}) error { return nil }
	return map[string]appbuilder.Callback{
		"on_header_text_change":    noop,
		"on_row_1_widget_5_change": noop,
		"on_code_table_change":     noop,
		"on_code_tree_change":      noop,
		"on_my_text_change": func(ctx context.Context, b *appbuilder.Binding, _ interface{}) error {
			return reg.Run(ctx, b, "")
		},
	}
}

// DefaultLayout is the layout written to a fresh app directory.
func DefaultLayout() *appbuilder.Layout {
	return &appbuilder.Layout{
		Title:      "Huffman Codetree live",
		Appearance: map[string]interface{}{"theme": "light"},
		Rows: []appbuilder.Row{
			{Widgets: []appbuilder.Widget{
				{ID: "widget_1", Type: appbuilder.WidgetHeader, Label: "Huffman-Codierung"},
			}},
			{Widgets: []appbuilder.Widget{
				{ID: "widget_2", Type: appbuilder.WidgetMarkdown, Label: "widget_2", Props: map[string]interface{}{
					appbuilder.PropUserID: KeyHeader,
				}},
				{ID: "widget_5", Type: appbuilder.WidgetSlider, Label: "Slider", Props: map[string]interface{}{
					appbuilder.PropDefault: json.Number("1.0"), "min": 0, "max": 10,
				}},
			}},
			{Widgets: []appbuilder.Widget{
				{ID: "widget_3", Type: appbuilder.WidgetMarkdown, Label: "widget_3", Props: map[string]interface{}{
					appbuilder.PropUserID: KeyText,
				}},
				{ID: "widget_4", Type: appbuilder.WidgetMarkdown, Label: "widget_4", Props: map[string]interface{}{
					appbuilder.PropUserID: KeyCodeTable,
				}},
				{ID: "widget_6", Type: appbuilder.WidgetMarkdown, Label: "widget_6", Props: map[string]interface{}{
					appbuilder.PropUserID: KeyCodeTree,
				}},
				{ID: "widget_7", Type: appbuilder.WidgetPlot, Label: "Häufigkeit", Props: map[string]interface{}{
					appbuilder.PropUserID: KeyPlot,
				}},
			}},
		},
	}
}
