package parser

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"codegraph/internal/tree"
)

// GrammarParser parses one language through its tree-sitter grammar and
// converts the resulting CST into the owned arena representation. Instances
// are stateless and safe for concurrent use; each Parse call creates its
// own sitter parser.
type GrammarParser struct {
	spec *langSpec
}

// NewGrammarParser returns the grammar-backed parser for a supported
// language, or an error the caller treats as "fall back to detection".
func NewGrammarParser(language string) (*GrammarParser, error) {
	spec := specFor(language)
	if spec == nil {
		return nil, fmt.Errorf("no grammar for language %q", language)
	}
	return &GrammarParser{spec: spec}, nil
}

// Language names the grammar.
func (p *GrammarParser) Language() string { return p.spec.name }

// Parse runs the grammar and converts. Malformed source yields a tree with
// error nodes, never an error return; only grammar-engine failures (which
// the package entry point turns into degraded mode) error out.
func (p *GrammarParser) Parse(ctx context.Context, source []byte) (*tree.SyntaxTree, error) {
	sp := sitter.NewParser()
	sp.SetLanguage(grammarFor(p.spec))

	cst, err := sp.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	root := cst.RootNode()
	if root == nil {
		return nil, fmt.Errorf("tree-sitter produced no root node")
	}

	c := &converter{
		spec:    p.spec,
		source:  source,
		builder: tree.NewBuilder(p.spec.name, source),
	}
	rootID := c.convert(root)
	c.builder.SetRoot(rootID)
	return c.builder.Build(), nil
}

// converter copies a tree-sitter CST into the arena bottom-up, so every
// child handle exists before its parent node is sealed.
type converter struct {
	spec    *langSpec
	source  []byte
	builder *tree.Builder
}

func (c *converter) convert(raw *sitter.Node) tree.NodeID {
	count := int(raw.ChildCount())
	childIDs := make([]tree.NodeID, 0, count)
	childRaws := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		ch := raw.Child(i)
		childIDs = append(childIDs, c.convert(ch))
		childRaws = append(childRaws, ch)
	}

	n := tree.Node{
		Kind:      c.kindOf(raw),
		RawType:   raw.Type(),
		Start:     tree.Point{Row: raw.StartPoint().Row, Column: raw.StartPoint().Column},
		End:       tree.Point{Row: raw.EndPoint().Row, Column: raw.EndPoint().Column},
		StartByte: raw.StartByte(),
		EndByte:   raw.EndByte(),
		Named:     raw.IsNamed(),
		Children:  childIDs,
	}

	for _, fname := range c.spec.fields[raw.Type()] {
		fieldNode := raw.ChildByFieldName(fname)
		if fieldNode == nil {
			continue
		}
		for i, ch := range childRaws {
			if sameNode(ch, fieldNode) {
				if n.Fields == nil {
					n.Fields = map[string]tree.NodeID{}
				}
				n.Fields[fname] = childIDs[i]
				break
			}
		}
	}

	if c.spec.fixup != nil {
		c.spec.fixup(c, raw, &n)
	}

	return c.builder.Add(n)
}

func (c *converter) kindOf(raw *sitter.Node) tree.NodeKind {
	if raw.IsError() || raw.Type() == "ERROR" {
		return tree.KindError
	}
	if k, ok := c.spec.kinds[raw.Type()]; ok {
		return k
	}
	return tree.KindUnknown
}

// text reads a raw CST node's source slice during conversion, before the
// node has an arena handle.
func (c *converter) text(raw *sitter.Node) string {
	if raw == nil {
		return ""
	}
	start, end := int(raw.StartByte()), int(raw.EndByte())
	if start < 0 || end > len(c.source) || start > end {
		return ""
	}
	return string(c.source[start:end])
}

// sameNode matches a positional child against a field lookup result.
// tree-sitter hands out distinct wrappers for the same underlying node, so
// identity is by span and type.
func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}
