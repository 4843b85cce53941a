package assignments

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/LeoRoessmann/KT-course/core/appbuilder"
)

// Entropy is the Shannon entropy of the symbol distribution in bits.
func Entropy(syms []Symbol) float64 {
	total := 0
	for _, s := range syms {
		total += s.Count
	}
	var h float64
	for _, s := range syms {
		p := float64(s.Count) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

// Frequency shows the character distribution of my_text as a table, a bar
// plot and its entropy.
func Frequency(_ context.Context, b *appbuilder.Binding) error {
	text := b.GetString(KeyText)
	syms := Frequencies(text)
	total := len([]rune(text))

	var table strings.Builder
	table.WriteString("| Zeichen | Anzahl | p |\n|---|---:|---:|\n")
	x := make([]interface{}, 0, len(syms))
	y := make([]interface{}, 0, len(syms))
	for _, s := range syms {
		p := float64(s.Count) / float64(total)
		fmt.Fprintf(&table, "| %q | %d | %.3f |\n", s.Char, s.Count, p)
		x = append(x, string(s.Char))
		y = append(y, p)
	}
	b.Set(KeyCodeTable, table.String())

	if total == 0 {
		b.Set(KeyCodeTree, "(kein Text)")
	} else {
		b.Set(KeyCodeTree, fmt.Sprintf("H = %.3f bit/Zeichen (%d Zeichen, %d verschieden)", Entropy(syms), total, len(syms)))
	}

	b.UpdatePlot(KeyPlot, appbuilder.Figure{
		Data:   []map[string]interface{}{{"type": "bar", "x": x, "y": y}},
		Layout: map[string]interface{}{"title": "Zeichenhäufigkeit"},
	}, true)
	return nil
}
