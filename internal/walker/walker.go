// Package walker scans a directory tree for source files the pipeline can
// analyze, streaming matches through a callback so large trees never sit in
// memory at once. Gitignore rules, glob patterns, and resource limits all
// apply before a file reaches the parser.
package walker

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	gitignore "github.com/sabhiram/go-gitignore"

	"codegraph/internal/codeerr"
	"codegraph/internal/parser"
)

// DefaultMaxFileSize bounds a single file at 10MB.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// DefaultMaxFiles bounds one walk at 10k analyzable files.
const DefaultMaxFiles = 10000

var defaultIgnoredDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"dist":         true,
	"build":        true,
	".idea":        true,
	".vscode":      true,
}

// Config controls a walk.
type Config struct {
	// IncludePatterns are glob patterns matched against the path relative
	// to the root; empty means every supported source file.
	IncludePatterns []string
	// ExcludePatterns are glob patterns removing files after inclusion.
	ExcludePatterns []string
	// Languages restricts to specific languages; empty means all supported.
	Languages []string
	// MaxFileSize and MaxFiles are resource limits; breaching MaxFiles
	// aborts the walk with a ResourceError, an oversized file is skipped.
	MaxFileSize int64
	MaxFiles    int
	// UseGitignore honors a .gitignore at the walk root.
	UseGitignore bool
}

// File is one walk hit.
type File struct {
	// Path is absolute (or root-relative, matching the input root).
	Path string
	// RelPath is relative to the walk root, forward slashes.
	RelPath string
	// Language as determined by extension.
	Language string
	Size     int64
}

// Walker scans directories according to its config.
type Walker struct {
	cfg      Config
	includes []glob.Glob
	excludes []glob.Glob
	langs    map[string]bool
}

// New compiles a Walker from config, normalizing limits.
func New(cfg Config) (*Walker, error) {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = DefaultMaxFiles
	}

	w := &Walker{cfg: cfg, langs: map[string]bool{}}
	for _, p := range cfg.IncludePatterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, codeerr.Validationf("bad include pattern %q: %v", p, err)
		}
		w.includes = append(w.includes, g)
	}
	for _, p := range cfg.ExcludePatterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, codeerr.Validationf("bad exclude pattern %q: %v", p, err)
		}
		w.excludes = append(w.excludes, g)
	}
	for _, l := range cfg.Languages {
		w.langs[l] = true
	}
	return w, nil
}

// Scan walks root and calls onFile for every analyzable source file, in
// lexical order. A missing root is a ResourceError; exceeding MaxFiles
// aborts the walk with one.
func (w *Walker) Scan(root string, onFile func(File) error) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return codeerr.Resourcef(root, "path not found")
		}
		return codeerr.Resourcef(root, "stat failed: %v", err)
	}

	if !info.IsDir() {
		return w.visit(root, root, info.Size(), onFile, &walkCount{})
	}

	var ign *gitignore.GitIgnore
	if w.cfg.UseGitignore {
		// Best effort: no .gitignore, no rules.
		ign, _ = gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	}

	count := &walkCount{}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && (defaultIgnoredDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if ign != nil && ign.MatchesPath(rel) {
			return nil
		}
		if !w.selectPath(rel) {
			return nil
		}

		fi, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		return w.visit(path, rel, fi.Size(), onFile, count)
	})
}

type walkCount struct{ n int }

func (w *Walker) visit(path, rel string, size int64, onFile func(File) error, count *walkCount) error {
	lang := parser.LanguageForPath(path)
	if lang == "" {
		return nil
	}
	if len(w.langs) > 0 && !w.langs[lang] {
		return nil
	}
	if size > w.cfg.MaxFileSize {
		// Oversized files are skipped, not fatal: one huge vendored bundle
		// must not kill a tree walk.
		return nil
	}

	count.n++
	if count.n > w.cfg.MaxFiles {
		return codeerr.Resourcef(path, "walk exceeded %d files", w.cfg.MaxFiles)
	}

	return onFile(File{Path: path, RelPath: rel, Language: lang, Size: size})
}

// selectPath applies include then exclude globs to a root-relative path.
func (w *Walker) selectPath(rel string) bool {
	if len(w.includes) > 0 {
		matched := false
		for _, g := range w.includes {
			if g.Match(rel) || g.Match(filepath.Base(rel)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, g := range w.excludes {
		if g.Match(rel) || g.Match(filepath.Base(rel)) {
			return false
		}
	}
	return true
}
