package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/codeerr"
	"codegraph/internal/parser"
)

const pythonSample = `import os
from collections import OrderedDict as OD

def top(a, b):
    return a + b

class Service(Base):
    def start(self):
        pass

    def stop(self):
        pass

LIMIT = 100
`

func analyze(t *testing.T, src, lang string) *FileSummary {
	t.Helper()
	s, err := New(nil).AnalyzeSource(context.Background(), []byte(src), lang)
	require.NoError(t, err)
	return s
}

func TestAnalyzer_PythonSummary(t *testing.T) {
	s := analyze(t, pythonSample, parser.LangPython)

	t.Run("imports", func(t *testing.T) {
		require.Len(t, s.Imports, 2)

		assert.Equal(t, "os", s.Imports[0].Module)
		assert.False(t, s.Imports[0].FromImport)
		assert.Equal(t, 1, s.Imports[0].StartLine)

		assert.Equal(t, "collections", s.Imports[1].Module)
		assert.Equal(t, "OrderedDict", s.Imports[1].Name)
		assert.Equal(t, "OD", s.Imports[1].Alias)
		assert.True(t, s.Imports[1].FromImport)
	})

	t.Run("functions", func(t *testing.T) {
		require.Len(t, s.Functions, 1)
		fn := s.Functions[0]
		assert.Equal(t, "top", fn.Name)
		assert.Equal(t, []string{"a", "b"}, fn.Params)
		assert.Equal(t, 4, fn.StartLine)
	})

	t.Run("classes carry their methods", func(t *testing.T) {
		require.Len(t, s.Classes, 1)
		cls := s.Classes[0]
		assert.Equal(t, "Service", cls.Name)
		assert.Equal(t, []string{"Base"}, cls.Bases)

		require.Len(t, cls.Methods, 2)
		assert.Equal(t, "start", cls.Methods[0].Name)
		assert.Equal(t, "stop", cls.Methods[1].Name)
	})

	t.Run("methods never leak into functions", func(t *testing.T) {
		for _, fn := range s.Functions {
			assert.NotEqual(t, "start", fn.Name)
			assert.NotEqual(t, "stop", fn.Name)
		}
	})

	t.Run("module variables", func(t *testing.T) {
		require.Len(t, s.Variables, 1)
		assert.Equal(t, "LIMIT", s.Variables[0].Name)
		assert.Equal(t, 14, s.Variables[0].StartLine)
	})
}

func TestAnalyzer_NestedDefinitionsStayNested(t *testing.T) {
	src := `def outer():
    def inner():
        pass
    return inner
`
	s := analyze(t, src, parser.LangPython)
	require.Len(t, s.Functions, 1)
	assert.Equal(t, "outer", s.Functions[0].Name)
}

func TestAnalyzer_ConditionalBlocksAreNotModuleScope(t *testing.T) {
	src := `if True:
    def guarded():
        pass
`
	s := analyze(t, src, parser.LangPython)
	assert.Empty(t, s.Functions, "definitions inside compound statements are not top level")
}

func TestAnalyzer_WildcardImport(t *testing.T) {
	s := analyze(t, "from os.path import *\n", parser.LangPython)
	require.Len(t, s.Imports, 1)
	assert.Equal(t, "os.path", s.Imports[0].Module)
	assert.Equal(t, "*", s.Imports[0].Name)
	assert.True(t, s.Imports[0].FromImport)
}

func TestAnalyzer_DegradedTree(t *testing.T) {
	// Content no grammar accepts still summarizes, just to nothing.
	s, err := New(nil).AnalyzeSource(context.Background(), []byte("%%% opaque %%%"), "")
	require.NoError(t, err)
	assert.Empty(t, s.Imports)
	assert.Empty(t, s.Functions)
	assert.Empty(t, s.Classes)
	assert.Empty(t, s.Variables)
}

func TestAnalyzer_AnalyzeFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := New(nil).AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "ghost.py"))
		require.Error(t, err)
		assert.True(t, codeerr.IsResource(err))
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.py")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		_, err := New(nil).AnalyzeFile(context.Background(), path)
		require.Error(t, err)
		assert.True(t, codeerr.IsValidation(err))
	})
}
