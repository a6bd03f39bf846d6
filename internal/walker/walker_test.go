package walker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/codeerr"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func scan(t *testing.T, cfg Config, root string) []File {
	t.Helper()
	w, err := New(cfg)
	require.NoError(t, err)
	var files []File
	require.NoError(t, w.Scan(root, func(f File) error {
		files = append(files, f)
		return nil
	}))
	return files
}

func relPaths(files []File) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	return out
}

func TestWalker_Scan(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app/main.py":              "def main(): pass\n",
		"app/util.js":              "function util() {}\n",
		"README.md":                "docs\n",
		"node_modules/dep/idx.js":  "module.exports = {}\n",
		"__pycache__/main.pyc":     "binary\n",
		".hidden/secret.py":        "x = 1\n",
		"vendor/lib.py":            "y = 2\n",
	})

	files := scan(t, Config{}, root)
	assert.ElementsMatch(t, []string{"app/main.py", "app/util.js"}, relPaths(files))

	t.Run("languages detected", func(t *testing.T) {
		byPath := map[string]string{}
		for _, f := range files {
			byPath[f.RelPath] = f.Language
		}
		assert.Equal(t, "python", byPath["app/main.py"])
		assert.Equal(t, "javascript", byPath["app/util.js"])
	})
}

func TestWalker_LanguageFilter(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py": "x = 1\n",
		"b.js": "var x = 1;\n",
	})

	files := scan(t, Config{Languages: []string{"python"}}, root)
	assert.Equal(t, []string{"a.py"}, relPaths(files))
}

func TestWalker_Patterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.py":       "x = 1\n",
		"src/app_test.py":  "x = 1\n",
		"scripts/tool.py":  "x = 1\n",
	})

	t.Run("includes", func(t *testing.T) {
		files := scan(t, Config{IncludePatterns: []string{"src/**"}}, root)
		assert.ElementsMatch(t, []string{"src/app.py", "src/app_test.py"}, relPaths(files))
	})

	t.Run("excludes", func(t *testing.T) {
		files := scan(t, Config{ExcludePatterns: []string{"*_test.py"}}, root)
		assert.ElementsMatch(t, []string{"src/app.py", "scripts/tool.py"}, relPaths(files))
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := New(Config{IncludePatterns: []string{"[unclosed"}})
		require.Error(t, err)
		assert.True(t, codeerr.IsValidation(err))
	})
}

func TestWalker_Gitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":   "generated/\n*.gen.py\n",
		"main.py":      "x = 1\n",
		"a.gen.py":     "x = 1\n",
		"generated/b.py": "x = 1\n",
	})

	files := scan(t, Config{UseGitignore: true}, root)
	assert.Equal(t, []string{"main.py"}, relPaths(files))

	t.Run("disabled", func(t *testing.T) {
		files := scan(t, Config{UseGitignore: false}, root)
		assert.ElementsMatch(t, []string{"main.py", "a.gen.py", "generated/b.py"}, relPaths(files))
	})
}

func TestWalker_Limits(t *testing.T) {
	t.Run("oversized files are skipped", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{
			"small.py": "x = 1\n",
			"big.py":   strings.Repeat("# filler\n", 64),
		})

		files := scan(t, Config{MaxFileSize: 64}, root)
		assert.Equal(t, []string{"small.py"}, relPaths(files))
	})

	t.Run("file count limit aborts", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{
			"a.py": "x\n", "b.py": "x\n", "c.py": "x\n",
		})

		w, err := New(Config{MaxFiles: 2})
		require.NoError(t, err)
		err = w.Scan(root, func(File) error { return nil })
		require.Error(t, err)
		assert.True(t, codeerr.IsResource(err))
	})
}

func TestWalker_SingleFileTarget(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"only.py": "x = 1\n"})

	files := scan(t, Config{}, filepath.Join(root, "only.py"))
	require.Len(t, files, 1)
	assert.Equal(t, "python", files[0].Language)
}

func TestWalker_MissingRoot(t *testing.T) {
	w, err := New(Config{})
	require.NoError(t, err)
	err = w.Scan(filepath.Join(t.TempDir(), "nope"), func(File) error { return nil })
	require.Error(t, err)
	assert.True(t, codeerr.IsResource(err))
}
