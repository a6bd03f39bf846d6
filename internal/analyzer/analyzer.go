// Package analyzer produces flat structural summaries of a parsed file:
// imports, top-level functions, classes with their methods, and top-level
// variables. It deliberately ignores scoping detail -- that is the symbol
// extractor's job -- and never fails on malformed source, which arrives as
// a best-effort tree from the parser.
package analyzer

import (
	"context"
	"log/slog"
	"os"

	"codegraph/internal/codeerr"
	"codegraph/internal/parser"
	"codegraph/internal/tree"
)

// ImportInfo describes one imported name. A from-import with N names yields
// N entries sharing Module and Level; a whole-module import yields one entry
// whose Name is the module path itself.
type ImportInfo struct {
	Module     string `json:"module"`
	Name       string `json:"name,omitempty"` // imported symbol for from-imports
	Alias      string `json:"alias,omitempty"`
	Level      int    `json:"level,omitempty"` // relative-import dots
	FromImport bool   `json:"from_import,omitempty"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
}

// FunctionInfo describes a function or method definition.
type FunctionInfo struct {
	Name      string   `json:"name"`
	Params    []string `json:"params,omitempty"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
}

// ClassInfo describes a class and its methods. Methods live here only;
// they are never duplicated into the top-level functions list, so callers
// wanting a flat view must traverse Classes[i].Methods.
type ClassInfo struct {
	Name      string         `json:"name"`
	Bases     []string       `json:"bases,omitempty"`
	Methods   []FunctionInfo `json:"methods,omitempty"`
	StartLine int            `json:"start_line"`
	EndLine   int            `json:"end_line"`
}

// VariableInfo describes a module-scope assignment target.
type VariableInfo struct {
	Name      string `json:"name"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// FileSummary is the analyzer's result for one file.
type FileSummary struct {
	Imports   []ImportInfo   `json:"imports"`
	Functions []FunctionInfo `json:"functions"`
	Classes   []ClassInfo    `json:"classes"`
	Variables []VariableInfo `json:"variables"`
}

// Analyzer walks syntax trees into FileSummaries.
type Analyzer struct {
	log *slog.Logger
}

// New creates an Analyzer. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{log: log}
}

// Analyze summarizes a tree. Degraded trees produce an empty (not nil)
// summary: there is nothing structural to report, but that is not an error.
func (a *Analyzer) Analyze(t *tree.SyntaxTree) *FileSummary {
	s := &FileSummary{
		Imports:   []ImportInfo{},
		Functions: []FunctionInfo{},
		Classes:   []ClassInfo{},
		Variables: []VariableInfo{},
	}
	root := t.Root()
	if root == tree.InvalidNode {
		return s
	}

	for _, c := range t.Get(root).Children {
		a.summarizeTopLevel(t, c, s)
	}
	return s
}

// AnalyzeFile reads, parses and summarizes a file on disk.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*FileSummary, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, codeerr.Resourcef(path, "file not found")
		}
		return nil, codeerr.Resourcef(path, "read failed: %v", err)
	}
	t, err := parser.Parse(ctx, source, parser.WithFilePath(path), parser.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	return a.Analyze(t), nil
}

// AnalyzeSource parses and summarizes in-memory source.
func (a *Analyzer) AnalyzeSource(ctx context.Context, source []byte, langHint string) (*FileSummary, error) {
	t, err := parser.Parse(ctx, source, parser.WithLanguageHint(langHint), parser.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	return a.Analyze(t), nil
}

func (a *Analyzer) summarizeTopLevel(t *tree.SyntaxTree, id tree.NodeID, s *FileSummary) {
	id = t.UnwrapDecorated(id)
	n := t.Get(id)
	if n == nil {
		return
	}

	switch n.Kind {
	case tree.KindImport, tree.KindImportFrom:
		s.Imports = append(s.Imports, decodeImports(t, id, n)...)

	case tree.KindFunction:
		if fn, ok := functionInfo(t, id); ok {
			s.Functions = append(s.Functions, fn)
		}

	case tree.KindClass:
		if cls, ok := a.classInfo(t, id); ok {
			s.Classes = append(s.Classes, cls)
		}

	case tree.KindAssignment:
		if v, ok := variableInfo(t, id, n); ok {
			s.Variables = append(s.Variables, v)
		}

	case tree.KindError, tree.KindComment, tree.KindLiteral, tree.KindOpaque,
		tree.KindBlock, tree.KindCall, tree.KindIdentifier, tree.KindAttribute:
		// Nothing structural at top level; blocks are compound-statement
		// bodies, and anything inside them is not module scope.

	default:
		// Statement wrappers (expression_statement, export_statement, ...)
		// hide assignments and declarations one level down.
		for _, c := range n.Children {
			a.summarizeTopLevel(t, c, s)
		}
	}
}

func decodeImports(t *tree.SyntaxTree, id tree.NodeID, n *tree.Node) []ImportInfo {
	if n.Import == nil {
		return nil
	}
	start, end := int(n.Start.Row)+1, int(n.End.Row)+1
	var out []ImportInfo

	if n.Kind == tree.KindImport {
		for _, name := range n.Import.Names {
			out = append(out, ImportInfo{
				Module:    name.Name,
				Alias:     name.Alias,
				StartLine: start,
				EndLine:   end,
			})
		}
		return out
	}

	for _, name := range n.Import.Names {
		out = append(out, ImportInfo{
			Module:     n.Import.Module,
			Name:       name.Name,
			Alias:      name.Alias,
			Level:      n.Import.Level,
			FromImport: true,
			StartLine:  start,
			EndLine:    end,
		})
	}
	if n.Import.Wildcard {
		out = append(out, ImportInfo{
			Module:     n.Import.Module,
			Name:       "*",
			Level:      n.Import.Level,
			FromImport: true,
			StartLine:  start,
			EndLine:    end,
		})
	}
	return out
}

func functionInfo(t *tree.SyntaxTree, id tree.NodeID) (FunctionInfo, bool) {
	name := t.DeclaredName(id)
	if name == "" {
		return FunctionInfo{}, false
	}
	n := t.Get(id)
	return FunctionInfo{
		Name:      name,
		Params:    t.FunctionParams(id),
		StartLine: int(n.Start.Row) + 1,
		EndLine:   int(n.End.Row) + 1,
	}, true
}

func (a *Analyzer) classInfo(t *tree.SyntaxTree, id tree.NodeID) (ClassInfo, bool) {
	name := t.DeclaredName(id)
	if name == "" {
		return ClassInfo{}, false
	}
	n := t.Get(id)
	cls := ClassInfo{
		Name:      name,
		Bases:     t.ClassBases(id),
		StartLine: int(n.Start.Row) + 1,
		EndLine:   int(n.End.Row) + 1,
	}

	if body := t.Field(id, "body"); body != tree.InvalidNode {
		for _, c := range t.Get(body).Children {
			c = t.UnwrapDecorated(c)
			if t.Get(c).Kind != tree.KindFunction {
				continue
			}
			if m, ok := functionInfo(t, c); ok {
				cls.Methods = append(cls.Methods, m)
			}
		}
	}
	return cls, true
}

func variableInfo(t *tree.SyntaxTree, id tree.NodeID, n *tree.Node) (VariableInfo, bool) {
	target := t.Field(id, "left")
	if target == tree.InvalidNode {
		target = t.Field(id, "name")
	}
	if target == tree.InvalidNode || t.Get(target).Kind != tree.KindIdentifier {
		return VariableInfo{}, false
	}
	return VariableInfo{
		Name:      t.Text(target),
		StartLine: int(n.Start.Row) + 1,
		EndLine:   int(n.End.Row) + 1,
	}, true
}
