package appbuilder

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeoRoessmann/KT-course/tests"
)

func TestStateDefaults(t *testing.T) {
	l := parseTestLayout(t)
	assert.Equal(t, State{
		"row_0.widget_1":  nil,
		"row_1.widget_2":  "",
		"row_1.widget_5":  1.0,
		"row_1.widget_8":  int64(3),
		"row_2.widget_3":  "",
		"row_2.widget_4":  "",
		"row_2.widget_9":  false,
		"row_2.widget_10": 0.0,
		"row_2.widget_11": nil,
		"row_2.widget_12": nil,
	}, StateDefaults(l))
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		def   interface{}
		want  interface{}
	}{
		{name: "float from string", value: "2.5", def: 1.0, want: 2.5},
		{name: "float from int", value: int64(4), def: 1.0, want: 4.0},
		{name: "float from json number", value: json.Number("0.25"), def: 1.0, want: 0.25},
		{name: "float empty falls back", value: "", def: 1.0, want: 1.0},
		{name: "float nil falls back", value: nil, def: 1.0, want: 1.0},
		{name: "float garbage falls back", value: "loud", def: 1.0, want: 1.0},
		{name: "float NaN falls back", value: "NaN", def: 1.0, want: 1.0},
		{name: "float Inf falls back", value: "Inf", def: 1.0, want: 1.0},
		{name: "float -Inf falls back", value: "-inf", def: 1.0, want: 1.0},
		{name: "float infinite number falls back", value: math.Inf(1), def: 1.0, want: 1.0},
		{name: "int NaN falls back", value: "nan", def: int64(3), want: int64(3)},
		{name: "int truncates", value: 7.9, def: int64(3), want: int64(7)},
		{name: "int from string", value: " 12 ", def: int64(3), want: int64(12)},
		{name: "int garbage falls back", value: "x", def: int64(3), want: int64(3)},
		{name: "go int default", value: "5", def: 2, want: int64(5)},
		{name: "string default passes through", value: 42.0, def: "", want: 42.0},
		{name: "bool default passes through", value: "on", def: false, want: "on"},
		{name: "nil default passes through", value: "x", def: nil, want: "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coerce(tt.value, tt.def))
		})
	}
}

func TestLoadState(t *testing.T) {
	defaults := State{"row_1.widget_5": 1.0, "row_1.widget_8": int64(3), "row_2.widget_3": ""}
	path := filepath.Join(t.TempDir(), SessionStateFile)

	state, err := LoadState(path, defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, state)

	testutil.WriteFile(t, path, `{"row_1.widget_5": "", "row_1.widget_8": 9.0, "row_2.widget_3": "abc", "row_9.gone": 1}`)
	state, err = LoadState(path, defaults)
	require.NoError(t, err)
	assert.Equal(t, State{"row_1.widget_5": 1.0, "row_1.widget_8": int64(9), "row_2.widget_3": "abc"}, state)
	assert.Equal(t, 1.0, defaults["row_1.widget_5"], "defaults are not modified")

	testutil.WriteFile(t, path, `[1, 2]`)
	state, err = LoadState(path, defaults)
	assert.Error(t, err)
	assert.Equal(t, defaults, state)
}

func TestSaveState_RoundTrip(t *testing.T) {
	defaults := State{"a": 1.0, "b": int64(2), "c": ""}
	path := filepath.Join(t.TempDir(), SessionStateFile)

	require.NoError(t, SaveState(path, State{"a": 0.5, "b": int64(7), "c": "text"}))
	state, err := LoadState(path, defaults)
	require.NoError(t, err)
	assert.Equal(t, State{"a": 0.5, "b": int64(7), "c": "text"}, state)
}
