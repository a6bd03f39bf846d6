// Package parser turns raw source text into the arena syntax trees the rest
// of the pipeline consumes. Language grammars plug in behind the Parser
// interface; when no grammar applies, a degraded parser preserves the raw
// text as a single opaque node so non-empty input never yields an empty tree.
package parser

import (
	"context"
	"log/slog"
	"strings"

	"codegraph/internal/codeerr"
	"codegraph/internal/tree"
)

// Parser produces a syntax tree from source text. Implementations are pure:
// the same input always yields an equivalent tree, and instances are safe
// for concurrent use.
type Parser interface {
	// Parse never fails for malformed source in a supported language; grammar
	// errors surface as error nodes inside a best-effort tree.
	Parse(ctx context.Context, source []byte) (*tree.SyntaxTree, error)
	// Language names the grammar behind this parser, or "" for degraded mode.
	Language() string
}

// Options select a language for a single Parse call.
type Options struct {
	// LanguageHint wins over every other selection rule when set.
	LanguageHint string
	// FilePath is consulted for its extension when no hint is given.
	FilePath string
	Logger   *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithLanguageHint forces a specific language.
func WithLanguageHint(lang string) Option {
	return func(o *Options) { o.LanguageHint = lang }
}

// WithFilePath supplies the origin path for extension-based detection.
func WithFilePath(path string) Option {
	return func(o *Options) { o.FilePath = path }
}

// WithLogger routes recovery warnings somewhere other than slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Parse is the package-level entry point: it selects a language (hint, then
// file extension, then content heuristic), picks the grammar or degraded
// parser accordingly, and parses. Genuinely empty input is the one
// ValidationError; everything else produces a tree.
func Parse(ctx context.Context, source []byte, opts ...Option) (*tree.SyntaxTree, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	if len(strings.TrimSpace(string(source))) == 0 {
		return nil, codeerr.Validationf("empty source")
	}

	p := Select(o)
	t, err := p.Parse(ctx, source)
	if err != nil {
		// A grammar-level failure is not the caller's problem: fall back to
		// the degraded tree rather than surfacing it.
		o.Logger.Warn("grammar parse failed, degrading",
			"language", p.Language(), "path", o.FilePath, "err", err)
		return NewDegradedParser().Parse(ctx, source)
	}
	return t, nil
}

// Select resolves the parser for the given options without parsing.
func Select(o Options) Parser {
	lang := o.LanguageHint
	if lang == "" && o.FilePath != "" {
		lang = LanguageForPath(o.FilePath)
	}
	if g, err := NewGrammarParser(lang); err == nil {
		return g
	}
	// Hint or extension named something we have no grammar for, or nothing
	// was resolved at all: last chance is the content heuristic.
	return selectByContent
}

// selectByContent defers detection until source is available.
var selectByContent Parser = contentSelector{}

type contentSelector struct{}

func (contentSelector) Language() string { return "" }

func (contentSelector) Parse(ctx context.Context, source []byte) (*tree.SyntaxTree, error) {
	if lang := DetectLanguage(source); lang != "" {
		if g, err := NewGrammarParser(lang); err == nil {
			return g.Parse(ctx, source)
		}
	}
	return NewDegradedParser().Parse(ctx, source)
}
