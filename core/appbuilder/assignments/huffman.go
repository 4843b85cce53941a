package assignments

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/LeoRoessmann/KT-course/core/appbuilder"
)

// Symbol is one distinct character of the input with its count.
type Symbol struct {
	Char  rune
	Count int
}

// Node is a Huffman tree node; leaves carry a symbol.
type Node struct {
	Symbol      Symbol
	Leaf        bool
	Weight      int
	Left, Right *Node

	seq int
}

// Frequencies counts the characters of text, most frequent first, ties by character.
func Frequencies(text string) []Symbol {
	counts := make(map[rune]int)
	for _, r := range text {
		counts[r]++
	}
	syms := make([]Symbol, 0, len(counts))
	for r, n := range counts {
		syms = append(syms, Symbol{Char: r, Count: n})
	}
	sort.Slice(syms, func(i, j int) bool {
		if syms[i].Count != syms[j].Count {
			return syms[i].Count > syms[j].Count
		}
		return syms[i].Char < syms[j].Char
	})
	return syms
}

type nodeQueue []*Node

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].Weight != q[j].Weight {
		return q[i].Weight < q[j].Weight
	}
	return q[i].seq < q[j].seq
}
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(*Node)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// BuildTree builds the Huffman tree of syms. Ties are broken by creation
// order, so the result is deterministic. It returns nil for no symbols.
func BuildTree(syms []Symbol) *Node {
	if len(syms) == 0 {
		return nil
	}
	q := make(nodeQueue, 0, len(syms))
	seq := 0
	// least frequent symbols first, so they merge first on ties
	for i := len(syms) - 1; i >= 0; i-- {
		q = append(q, &Node{Symbol: syms[i], Leaf: true, Weight: syms[i].Count, seq: seq})
		seq++
	}
	heap.Init(&q)
	for q.Len() > 1 {
		left := heap.Pop(&q).(*Node)
		right := heap.Pop(&q).(*Node)
		heap.Push(&q, &Node{Weight: left.Weight + right.Weight, Left: left, Right: right, seq: seq})
		seq++
	}
	return q[0]
}

// Codes returns the code word of every leaf. A lone symbol gets "0".
func Codes(root *Node) map[rune]string {
	codes := make(map[rune]string)
	if root == nil {
		return codes
	}
	if root.Leaf {
		codes[root.Symbol.Char] = "0"
		return codes
	}
	var walk func(n *Node, prefix string)
	walk = func(n *Node, prefix string) {
		if n.Leaf {
			codes[n.Symbol.Char] = prefix
			return
		}
		walk(n.Left, prefix+"0")
		walk(n.Right, prefix+"1")
	}
	walk(root, "")
	return codes
}

// MeanLength is the average code length in bits per symbol.
func MeanLength(syms []Symbol, codes map[rune]string) float64 {
	total, bits := 0, 0
	for _, s := range syms {
		total += s.Count
		bits += s.Count * len(codes[s.Char])
	}
	if total == 0 {
		return 0
	}
	return float64(bits) / float64(total)
}

// CodeTable renders the code words as a markdown table.
func CodeTable(syms []Symbol, codes map[rune]string) string {
	total := 0
	for _, s := range syms {
		total += s.Count
	}
	var b strings.Builder
	b.WriteString("| Zeichen | Anzahl | p | Code |\n|---|---:|---:|---|\n")
	for _, s := range syms {
		fmt.Fprintf(&b, "| %q | %d | %.2f | `%s` |\n", s.Char, s.Count, float64(s.Count)/float64(total), codes[s.Char])
	}
	fmt.Fprintf(&b, "\nMittlere Codewortlänge: %.3f bit/Zeichen\n", MeanLength(syms, codes))
	return b.String()
}

// TreeASCII draws the tree with box characters, one node per line.
func TreeASCII(root *Node, total int) string {
	if root == nil || total == 0 {
		return ""
	}
	var lines []string
	var draw func(n *Node, prefix string, tail, isRoot bool)
	draw = func(n *Node, prefix string, tail, isRoot bool) {
		label := fmt.Sprintf("[%.2f]", float64(n.Weight)/float64(total))
		if n.Leaf {
			label = fmt.Sprintf("%q (%.2f)", n.Symbol.Char, float64(n.Weight)/float64(total))
		}
		switch {
		case isRoot:
			lines = append(lines, label)
		case tail:
			lines = append(lines, prefix+"└── "+label)
		default:
			lines = append(lines, prefix+"├── "+label)
		}
		if n.Leaf {
			return
		}
		ext := "│   "
		switch {
		case isRoot:
			ext = ""
		case tail:
			ext = "    "
		}
		draw(n.Left, prefix+ext, false, false)
		draw(n.Right, prefix+ext, true, false)
	}
	draw(root, "", true, true)
	return strings.Join(lines, "\n")
}

// Huffman reads my_text and shows its code table and code tree.
func Huffman(_ context.Context, b *appbuilder.Binding) error {
	text := b.GetString(KeyText)
	b.ClearMarkdown(KeyCodeTable)
	b.ClearMarkdown(KeyCodeTree)
	if text == "" {
		b.Set(KeyCodeTree, "(kein Text)")
		return nil
	}

	syms := Frequencies(text)
	root := BuildTree(syms)
	codes := Codes(root)
	b.Set(KeyCodeTable, CodeTable(syms, codes))
	b.Set(KeyCodeTree, TreeASCII(root, len([]rune(text))))
	return nil
}
