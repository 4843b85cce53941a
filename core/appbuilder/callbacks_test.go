package appbuilder

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindCallbacks(t *testing.T) {
	l := parseTestLayout(t)
	var calls []string
	record := func(name string) Callback {
		return func(_ context.Context, _ *Binding, _ interface{}) error {
			calls = append(calls, name)
			return nil
		}
	}

	reg, missing := BindCallbacks(l, map[string]Callback{
		"on_text":                  record("text"),
		"on_row_1_widget_5_change": record("slider"),
		"on_unused_change":         record("unused"),
	})

	assert.Equal(t, []string{"row_1.widget_5", "row_2.widget_3"}, reg.PathIDs())
	assert.ElementsMatch(t, []string{"on_header_text_change", "on_count_change", "on_code_table_change"}, missing)

	ok, err := reg.Dispatch(context.Background(), NewBinding(nil), "row_2.widget_3", "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reg.Dispatch(context.Background(), NewBinding(nil), "row_2.widget_4", "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{"text"}, calls)
}

func TestCallbackRegistry_DispatchError(t *testing.T) {
	boom := errors.New("boom")
	reg := NewCallbackRegistry()
	reg.Register("row_0.w", func(context.Context, *Binding, interface{}) error { return boom })

	ok, err := reg.Dispatch(context.Background(), NewBinding(nil), "row_0.w", nil)
	assert.True(t, ok)
	assert.Equal(t, boom, errors.Cause(err))
	assert.Contains(t, err.Error(), "row_0.w")
}

func TestCallbackRegistry_PassesValueAndBinding(t *testing.T) {
	reg := NewCallbackRegistry()
	reg.Register("row_1.widget_5", func(_ context.Context, b *Binding, v interface{}) error {
		b.Set("echo", v)
		return nil
	})

	b := NewBinding(nil)
	b.Bind("echo", "row_9.out")
	_, err := reg.Dispatch(context.Background(), b, "row_1.widget_5", 2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, b.Get("echo", nil))
}
