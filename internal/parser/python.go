package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"codegraph/internal/tree"
)

var pythonSpec = &langSpec{
	name:     LangPython,
	language: python.GetLanguage,
	kinds: map[string]tree.NodeKind{
		"module":                  tree.KindModule,
		"import_statement":        tree.KindImport,
		"import_from_statement":   tree.KindImportFrom,
		"future_import_statement": tree.KindImportFrom,
		"function_definition":     tree.KindFunction,
		"class_definition":        tree.KindClass,
		"decorated_definition":    tree.KindDecorated,
		"assignment":              tree.KindAssignment,
		"augmented_assignment":    tree.KindAssignment,
		"call":                    tree.KindCall,
		"identifier":              tree.KindIdentifier,
		"attribute":               tree.KindAttribute,
		"parameters":              tree.KindParameters,
		"typed_parameter":         tree.KindParameter,
		"default_parameter":       tree.KindParameter,
		"typed_default_parameter": tree.KindParameter,
		"block":                   tree.KindBlock,
		"argument_list":           tree.KindArguments,
		"list_comprehension":       tree.KindComprehension,
		"set_comprehension":        tree.KindComprehension,
		"dictionary_comprehension": tree.KindComprehension,
		"generator_expression":     tree.KindComprehension,
		"comment":                 tree.KindComment,
		"string":                  tree.KindLiteral,
		"integer":                 tree.KindLiteral,
		"float":                   tree.KindLiteral,
		"true":                    tree.KindLiteral,
		"false":                   tree.KindLiteral,
		"none":                    tree.KindLiteral,
	},
	fields: map[string][]string{
		"function_definition":     {"name", "parameters", "body", "return_type"},
		"class_definition":        {"name", "superclasses", "body"},
		"decorated_definition":    {"definition"},
		"assignment":              {"left", "right"},
		"augmented_assignment":    {"left", "right"},
		"call":                    {"function", "arguments"},
		"attribute":               {"object", "attribute"},
		"typed_parameter":         {"type"},
		"default_parameter":       {"name", "value"},
		"typed_default_parameter": {"name", "type", "value"},
	},
	fixup: pythonFixup,
}

func pythonFixup(c *converter, raw *sitter.Node, n *tree.Node) {
	switch n.Kind {
	case tree.KindImport:
		n.Import = decodePythonImport(c, raw)
	case tree.KindImportFrom:
		n.Import = decodePythonImportFrom(c, raw)
	}
}

// decodePythonImport handles "import a.b, c as d": one ImportedName per
// comma-separated target, aliases captured, module equal to the dotted path.
func decodePythonImport(c *converter, raw *sitter.Node) *tree.ImportDetail {
	d := &tree.ImportDetail{}
	for i := 0; i < int(raw.ChildCount()); i++ {
		ch := raw.Child(i)
		switch ch.Type() {
		case "dotted_name":
			d.Names = append(d.Names, tree.ImportedName{Name: c.text(ch)})
		case "aliased_import":
			var name, alias string
			for j := 0; j < int(ch.ChildCount()); j++ {
				gc := ch.Child(j)
				switch gc.Type() {
				case "dotted_name":
					name = c.text(gc)
				case "identifier":
					alias = c.text(gc)
				}
			}
			if name != "" {
				d.Names = append(d.Names, tree.ImportedName{Name: name, Alias: alias})
			}
		}
	}
	return d
}

// decodePythonImportFrom handles "from x import a, b as c", wildcard
// imports, and relative imports ("from .. import x" -> Level 2, Module "").
func decodePythonImportFrom(c *converter, raw *sitter.Node) *tree.ImportDetail {
	d := &tree.ImportDetail{}
	sawImport := false

	for i := 0; i < int(raw.ChildCount()); i++ {
		ch := raw.Child(i)
		switch ch.Type() {
		case "import":
			sawImport = true
		case "relative_import":
			for j := 0; j < int(ch.ChildCount()); j++ {
				gc := ch.Child(j)
				switch gc.Type() {
				case "import_prefix":
					d.Level = strings.Count(c.text(gc), ".")
				case "dotted_name":
					d.Module = c.text(gc)
				}
			}
		case "dotted_name":
			if !sawImport {
				d.Module = c.text(ch)
			} else {
				d.Names = append(d.Names, tree.ImportedName{Name: c.text(ch)})
			}
		case "identifier":
			if sawImport {
				d.Names = append(d.Names, tree.ImportedName{Name: c.text(ch)})
			}
		case "aliased_import":
			var name, alias string
			for j := 0; j < int(ch.ChildCount()); j++ {
				gc := ch.Child(j)
				switch gc.Type() {
				case "dotted_name":
					if name == "" {
						name = c.text(gc)
					}
				case "identifier":
					if name == "" {
						name = c.text(gc)
					} else {
						alias = c.text(gc)
					}
				}
			}
			if name != "" {
				d.Names = append(d.Names, tree.ImportedName{Name: name, Alias: alias})
			}
		case "wildcard_import":
			d.Wildcard = true
		}
	}
	return d
}
