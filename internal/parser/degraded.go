package parser

import (
	"bytes"
	"context"

	"codegraph/internal/tree"
)

// DegradedParser is the fallback for inputs no grammar covers. It produces a
// minimal module tree whose single child is an opaque node carrying the raw
// text, so downstream stages see the same data model they always do and the
// pipeline never hard-fails on an unknown language.
type DegradedParser struct{}

// NewDegradedParser returns the degraded-mode parser.
func NewDegradedParser() *DegradedParser { return &DegradedParser{} }

// Language reports "" since no grammar is involved.
func (p *DegradedParser) Language() string { return "" }

// Parse builds the two-node module/opaque tree. It cannot fail for
// non-empty input.
func (p *DegradedParser) Parse(_ context.Context, source []byte) (*tree.SyntaxTree, error) {
	b := tree.NewBuilder("", source)
	b.SetDegraded()

	end := endPoint(source)
	opaque := b.Add(tree.Node{
		Kind:      tree.KindOpaque,
		RawType:   "opaque_text",
		End:       end,
		EndByte:   uint32(len(source)),
		Named:     true,
	})
	root := b.Add(tree.Node{
		Kind:     tree.KindModule,
		RawType:  "module",
		End:      end,
		EndByte:  uint32(len(source)),
		Named:    true,
		Children: []tree.NodeID{opaque},
	})
	b.SetRoot(root)
	return b.Build(), nil
}

func endPoint(source []byte) tree.Point {
	rows := uint32(bytes.Count(source, []byte{'\n'}))
	last := source
	if i := bytes.LastIndexByte(source, '\n'); i >= 0 {
		last = source[i+1:]
	}
	return tree.Point{Row: rows, Column: uint32(len(last))}
}
