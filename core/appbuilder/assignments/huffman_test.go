package assignments

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeoRoessmann/KT-course/core/appbuilder"
)

func TestFrequencies(t *testing.T) {
	assert.Equal(t, []Symbol{
		{Char: 'a', Count: 5},
		{Char: 'b', Count: 2},
		{Char: 'r', Count: 2},
		{Char: 'c', Count: 1},
		{Char: 'd', Count: 1},
	}, Frequencies("abracadabra"))
	assert.Empty(t, Frequencies(""))
	assert.Equal(t, []Symbol{{Char: 'ä', Count: 2}}, Frequencies("ää"))
}

func TestCodes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[rune]string
	}{
		{name: "empty", text: "", want: map[rune]string{}},
		{name: "single symbol", text: "aaaa", want: map[rune]string{'a': "0"}},
		{name: "two symbols", text: "aab", want: map[rune]string{'b': "0", 'a': "1"}},
		{
			name: "abracadabra",
			text: "abracadabra",
			want: map[rune]string{'a': "0", 'd': "100", 'c': "101", 'r': "110", 'b': "111"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Codes(BuildTree(Frequencies(tt.text))))
		})
	}
}

func TestCodes_PrefixFree(t *testing.T) {
	codes := Codes(BuildTree(Frequencies("the quick brown fox jumps over the lazy dog")))
	for a, ca := range codes {
		for b, cb := range codes {
			if a != b {
				assert.False(t, strings.HasPrefix(cb, ca), "%q is a prefix of %q", ca, cb)
			}
		}
	}
}

func TestBuildTree_Deterministic(t *testing.T) {
	syms := Frequencies("mississippi river")
	assert.Equal(t, Codes(BuildTree(syms)), Codes(BuildTree(syms)))
	assert.Nil(t, BuildTree(nil))
	assert.Equal(t, 17, BuildTree(syms).Weight)
}

func TestMeanLength(t *testing.T) {
	syms := Frequencies("abracadabra")
	assert.InDelta(t, 23.0/11.0, MeanLength(syms, Codes(BuildTree(syms))), 1e-9)
	assert.Equal(t, 0.0, MeanLength(nil, nil))
}

func TestCodeTable(t *testing.T) {
	syms := Frequencies("aab")
	assert.Equal(t,
		"| Zeichen | Anzahl | p | Code |\n|---|---:|---:|---|\n"+
			"| 'a' | 2 | 0.67 | `1` |\n"+
			"| 'b' | 1 | 0.33 | `0` |\n"+
			"\nMittlere Codewortlänge: 1.000 bit/Zeichen\n",
		CodeTable(syms, Codes(BuildTree(syms))))
}

func TestTreeASCII(t *testing.T) {
	assert.Equal(t, "[1.00]\n├── 'b' (0.33)\n└── 'a' (0.67)", TreeASCII(BuildTree(Frequencies("aab")), 3))

	assert.Equal(t, strings.Join([]string{
		"[1.00]",
		"├── 'a' (0.45)",
		"└── [0.55]",
		"    ├── [0.18]",
		"    │   ├── 'd' (0.09)",
		"    │   └── 'c' (0.09)",
		"    └── [0.36]",
		"        ├── 'r' (0.18)",
		"        └── 'b' (0.18)",
	}, "\n"), TreeASCII(BuildTree(Frequencies("abracadabra")), 11))

	assert.Equal(t, "'x' (1.00)", TreeASCII(BuildTree(Frequencies("x")), 1))
	assert.Equal(t, "", TreeASCII(nil, 0))
}

func newBinding(text string) *appbuilder.Binding {
	b := appbuilder.NewBinding(appbuilder.State{"text": text})
	b.Bind(KeyText, "text")
	b.Bind(KeyCodeTable, "table")
	b.Bind(KeyCodeTree, "tree")
	return b
}

func TestHuffman(t *testing.T) {
	b := newBinding("aab")
	require.NoError(t, Huffman(context.Background(), b))
	assert.Contains(t, b.GetString(KeyCodeTable), "| 'a' | 2 | 0.67 | `1` |")
	assert.Equal(t, "[1.00]\n├── 'b' (0.33)\n└── 'a' (0.67)", b.GetString(KeyCodeTree))

	b = newBinding("")
	b.Set(KeyCodeTable, "stale")
	require.NoError(t, Huffman(context.Background(), b))
	assert.Equal(t, "", b.GetString(KeyCodeTable))
	assert.Equal(t, "(kein Text)", b.GetString(KeyCodeTree))
}
