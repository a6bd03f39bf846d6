package parser

import (
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"codegraph/internal/tree"
)

// langSpec describes how one grammar maps onto the neutral tree model:
// which sitter.Language to load, which raw node types collapse into which
// NodeKind, and which grammar fields to carry across. Raw types missing
// from the kind table become KindUnknown and are skipped, not rejected --
// grammar coverage gaps must stay non-fatal.
type langSpec struct {
	name     string
	language func() *sitter.Language
	kinds    map[string]tree.NodeKind
	// fields lists, per raw type, the grammar field names preserved on the
	// arena node.
	fields map[string][]string
	// fixup runs after a node's kind, children and fields are assembled but
	// before it enters the arena; it handles the language's irregular spots
	// (import decoding, JS heritage clauses).
	fixup func(c *converter, raw *sitter.Node, n *tree.Node)
}

var (
	specMu    sync.Mutex
	specOnce  = map[string]*sync.Once{}
	specLangs = map[string]*sitter.Language{}
)

// grammarFor performs the process-wide one-time load of a grammar. First
// caller initializes; concurrent and repeated calls are no-ops returning
// the same *sitter.Language.
func grammarFor(spec *langSpec) *sitter.Language {
	specMu.Lock()
	once, ok := specOnce[spec.name]
	if !ok {
		once = &sync.Once{}
		specOnce[spec.name] = once
	}
	specMu.Unlock()

	once.Do(func() {
		lang := spec.language()
		specMu.Lock()
		specLangs[spec.name] = lang
		specMu.Unlock()
	})

	specMu.Lock()
	defer specMu.Unlock()
	return specLangs[spec.name]
}

func specFor(language string) *langSpec {
	switch language {
	case LangPython:
		return pythonSpec
	case LangJavaScript:
		return javascriptSpec
	default:
		return nil
	}
}
