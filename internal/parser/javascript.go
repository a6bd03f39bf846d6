package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"codegraph/internal/tree"
)

var javascriptSpec = &langSpec{
	name:     LangJavaScript,
	language: javascript.GetLanguage,
	kinds: map[string]tree.NodeKind{
		"program":                        tree.KindModule,
		"import_statement":               tree.KindImportFrom,
		"function_declaration":           tree.KindFunction,
		"generator_function_declaration": tree.KindFunction,
		"function_expression":            tree.KindFunction,
		"arrow_function":                 tree.KindFunction,
		"method_definition":              tree.KindFunction,
		"class_declaration":              tree.KindClass,
		"class":                          tree.KindClass,
		"variable_declarator":            tree.KindAssignment,
		"assignment_expression":          tree.KindAssignment,
		"augmented_assignment_expression": tree.KindAssignment,
		"call_expression":                tree.KindCall,
		"new_expression":                 tree.KindCall,
		"identifier":                     tree.KindIdentifier,
		"property_identifier":            tree.KindIdentifier,
		"shorthand_property_identifier":  tree.KindIdentifier,
		"member_expression":              tree.KindAttribute,
		"formal_parameters":              tree.KindParameters,
		"statement_block":                tree.KindBlock,
		"class_body":                     tree.KindBlock,
		"arguments":                      tree.KindArguments,
		"class_heritage":                 tree.KindArguments,
		"comment":                        tree.KindComment,
		"string":                         tree.KindLiteral,
		"template_string":                tree.KindLiteral,
		"number":                         tree.KindLiteral,
		"true":                           tree.KindLiteral,
		"false":                          tree.KindLiteral,
		"null":                           tree.KindLiteral,
		"undefined":                      tree.KindLiteral,
	},
	fields: map[string][]string{
		"function_declaration":           {"name", "parameters", "body"},
		"generator_function_declaration": {"name", "parameters", "body"},
		"function_expression":            {"name", "parameters", "body"},
		"arrow_function":                 {"parameters", "body"},
		"method_definition":              {"name", "parameters", "body"},
		"class_declaration":              {"name", "body"},
		"class":                          {"name", "body"},
		"variable_declarator":            {"name", "value"},
		"assignment_expression":          {"left", "right"},
		"augmented_assignment_expression": {"left", "right"},
		"call_expression":                {"function", "arguments"},
		"new_expression":                 {"constructor", "arguments"},
		"member_expression":              {"object", "property"},
		"import_statement":               {"source"},
	},
	fixup: javascriptFixup,
}

func javascriptFixup(c *converter, raw *sitter.Node, n *tree.Node) {
	switch n.Kind {
	case tree.KindImportFrom:
		n.Import = decodeJSImport(c, raw)
	case tree.KindClass:
		// ES classes put "extends X" in a class_heritage child with no
		// grammar field; surface it under "superclasses" so the extractor
		// reads bases uniformly across languages.
		for i := 0; i < int(raw.ChildCount()); i++ {
			if raw.Child(i).Type() == "class_heritage" {
				if n.Fields == nil {
					n.Fields = map[string]tree.NodeID{}
				}
				n.Fields["superclasses"] = n.Children[i]
			}
		}
	}
}

// decodeJSImport normalizes ES import statements. Default, namespace, and
// named imports all become ImportedNames against the quoted source module,
// mirroring the per-name split of Python from-imports.
func decodeJSImport(c *converter, raw *sitter.Node) *tree.ImportDetail {
	d := &tree.ImportDetail{}
	if src := raw.ChildByFieldName("source"); src != nil {
		d.Module = strings.Trim(c.text(src), `'"`)
	}

	var walkClause func(n *sitter.Node)
	walkClause = func(n *sitter.Node) {
		for i := 0; i < int(n.ChildCount()); i++ {
			ch := n.Child(i)
			switch ch.Type() {
			case "identifier":
				// Default import: import x from 'm'.
				d.Names = append(d.Names, tree.ImportedName{Name: c.text(ch)})
			case "namespace_import":
				// import * as ns from 'm'.
				for j := 0; j < int(ch.ChildCount()); j++ {
					if gc := ch.Child(j); gc.Type() == "identifier" {
						d.Names = append(d.Names, tree.ImportedName{Name: c.text(gc)})
					}
				}
			case "named_imports":
				for j := 0; j < int(ch.ChildCount()); j++ {
					if gc := ch.Child(j); gc.Type() == "import_specifier" {
						spec := tree.ImportedName{}
						if name := gc.ChildByFieldName("name"); name != nil {
							spec.Name = c.text(name)
						}
						if alias := gc.ChildByFieldName("alias"); alias != nil {
							spec.Alias = c.text(alias)
						}
						if spec.Name != "" {
							d.Names = append(d.Names, spec)
						}
					}
				}
			}
		}
	}

	for i := 0; i < int(raw.ChildCount()); i++ {
		if ch := raw.Child(i); ch.Type() == "import_clause" {
			walkClause(ch)
		}
	}
	return d
}
