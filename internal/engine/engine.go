// Package engine orchestrates a full analysis run: walk the target, parse
// and extract files in parallel, merge the results into one graph in a
// stable order, and persist the outcome to the index.
package engine

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"codegraph/internal/codeerr"
	"codegraph/internal/config"
	"codegraph/internal/graph"
	"codegraph/internal/index"
	"codegraph/internal/parser"
	"codegraph/internal/relationships"
	"codegraph/internal/symbols"
	"codegraph/internal/walker"
)

// Format selects how Analyze renders its Output.
const (
	FormatGraph = "graph"
	FormatMap   = "map"
)

// Request describes one analysis run.
type Request struct {
	// TargetPath is a file or directory to analyze.
	TargetPath string
	// Format is FormatGraph (JSON export) or FormatMap (text repo map).
	Format string
	// IncludeExternal keeps placeholder nodes for unresolved names in the
	// JSON export.
	IncludeExternal bool
}

// FileFailure records a file the run could not analyze.
type FileFailure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Metadata summarizes a run.
type Metadata struct {
	RunID              string        `json:"run_id"`
	FilesAnalyzed      int           `json:"files_analyzed"`
	FilesSkipped       int           `json:"files_skipped"`
	RelationshipsFound int           `json:"relationships_found"`
	FailedFiles        []FileFailure `json:"failed_files,omitempty"`
	Duration           time.Duration `json:"duration"`
}

// Result is the outcome of one run. Graph stays available for follow-up
// queries (impact, neighborhoods) beyond the rendered Output.
type Result struct {
	Status   string
	Output   string
	Graph    *graph.Graph
	Metadata Metadata
}

type Engine struct {
	cfg   *config.Config
	log   *slog.Logger
	store *index.Store
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithStore attaches a persistent index; runs then skip work when nothing
// changed and save their graph on completion.
func WithStore(s *index.Store) Option {
	return func(e *Engine) { e.store = s }
}

func New(cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Engine{cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// extraction is one file's parse+extract output, held until the sequential
// merge phase.
type extraction struct {
	file walker.File
	res  *symbols.Result
	hash string
	err  error
}

// Analyze runs the pipeline over req.TargetPath.
func (e *Engine) Analyze(ctx context.Context, req Request) (*Result, error) {
	if req.TargetPath == "" {
		return nil, codeerr.Validationf("target path is required")
	}
	if req.Format == "" {
		req.Format = FormatGraph
	}
	if req.Format != FormatGraph && req.Format != FormatMap {
		return nil, codeerr.Validationf("unknown output format %q", req.Format)
	}

	start := time.Now()
	runID := uuid.NewString()
	log := e.log.With("run_id", runID)

	files, err := e.collectFiles(req.TargetPath)
	if err != nil {
		return nil, err
	}
	log.Info("analysis started", "target", req.TargetPath, "files", len(files))

	// Fast path: the index already covers every file at its current hash.
	if g, skipped, ok := e.loadUnchanged(ctx, files); ok {
		log.Info("index up to date, loaded stored graph", "files", skipped)
		return e.finish(req, g, Metadata{
			RunID:         runID,
			FilesSkipped:  skipped,
			FilesAnalyzed: 0,
			Duration:      time.Since(start),
		})
	}

	extractions, failures := e.extractAll(ctx, files, log)

	builder := relationships.NewBuilder(relationships.WithLogger(log))
	analyzed := 0
	for _, ex := range extractions {
		if ex.err != nil {
			continue
		}
		if err := builder.AddFileTables(ex.file.RelPath, ex.res); err != nil {
			failures = append(failures, FileFailure{Path: ex.file.RelPath, Err: err.Error()})
			continue
		}
		analyzed++
	}

	g := builder.Graph()
	if e.store != nil {
		if err := e.store.SaveGraph(ctx, g); err != nil {
			log.Warn("failed to persist graph", "error", err)
		} else {
			for _, ex := range extractions {
				if ex.err == nil {
					_ = e.store.RecordFile(ctx, ex.file.RelPath, ex.hash)
				}
			}
		}
	}

	meta := Metadata{
		RunID:              runID,
		FilesAnalyzed:      analyzed,
		RelationshipsFound: g.EdgeCount(),
		FailedFiles:        failures,
		Duration:           time.Since(start),
	}
	log.Info("analysis finished",
		"files", analyzed, "failed", len(failures),
		"nodes", g.NodeCount(), "edges", g.EdgeCount(),
		"duration", meta.Duration)

	return e.finish(req, g, meta)
}

// collectFiles walks the target and returns files in walk (lexical) order.
func (e *Engine) collectFiles(target string) ([]walker.File, error) {
	w, err := walker.New(walker.Config{
		IncludePatterns: e.cfg.Scan.IncludePatterns,
		ExcludePatterns: e.cfg.Scan.ExcludePatterns,
		Languages:       e.cfg.Project.Languages,
		MaxFileSize:     e.cfg.Scan.MaxFileSize,
		MaxFiles:        e.cfg.Scan.MaxFiles,
		UseGitignore:    e.cfg.Scan.UseGitignore,
	})
	if err != nil {
		return nil, err
	}

	var files []walker.File
	err = w.Scan(target, func(f walker.File) error {
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, codeerr.Validationf("no analyzable source files under %s", target)
	}
	return files, nil
}

// loadUnchanged returns the stored graph when the walked set is exactly the
// manifest set and every file matches its recorded hash. A manifest larger
// than the walk means files were deleted since the last run and the stored
// graph still carries their symbols, so that forces a rebuild too.
func (e *Engine) loadUnchanged(ctx context.Context, files []walker.File) (*graph.Graph, int, bool) {
	if e.store == nil {
		return nil, 0, false
	}
	count, err := e.store.FileCount(ctx)
	if err != nil || count != len(files) {
		return nil, 0, false
	}
	for _, f := range files {
		hash, err := index.HashFile(f.Path)
		if err != nil {
			return nil, 0, false
		}
		stale, err := e.store.Stale(ctx, f.RelPath, hash)
		if err != nil || stale {
			return nil, 0, false
		}
	}
	g, err := e.store.LoadGraph(ctx)
	if err != nil || g.NodeCount() == 0 {
		return nil, 0, false
	}
	return g, len(files), true
}

// extractAll parses and extracts every file concurrently. Results come back
// in input order so the merge stays deterministic regardless of scheduling.
func (e *Engine) extractAll(ctx context.Context, files []walker.File, log *slog.Logger) ([]extraction, []FileFailure) {
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := make([]extraction, len(files))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, f := range files {
		i, f := i, f
		eg.Go(func() error {
			out[i] = e.extractOne(ctx, f, log)
			return nil
		})
	}
	_ = eg.Wait()

	var failures []FileFailure
	for _, ex := range out {
		if ex.err != nil {
			failures = append(failures, FileFailure{Path: ex.file.RelPath, Err: ex.err.Error()})
		}
	}
	return out, failures
}

func (e *Engine) extractOne(ctx context.Context, f walker.File, log *slog.Logger) extraction {
	ex := extraction{file: f}

	source, err := readSource(f.Path)
	if err != nil {
		ex.err = err
		return ex
	}
	ex.hash = index.HashContent(source)

	t, err := parser.Parse(ctx, source,
		parser.WithLanguageHint(f.Language),
		parser.WithFilePath(f.Path),
		parser.WithLogger(log))
	if err != nil {
		ex.err = err
		return ex
	}

	extractor := symbols.NewExtractor(
		symbols.WithModuleName(relationships.ModuleName(f.RelPath)),
		symbols.WithLogger(log))
	ex.res = extractor.Extract(t)
	return ex
}

func (e *Engine) finish(req Request, g *graph.Graph, meta Metadata) (*Result, error) {
	meta.RelationshipsFound = g.EdgeCount()

	var output string
	var err error
	switch req.Format {
	case FormatMap:
		output = RenderMap(g)
	default:
		output, err = RenderGraph(g, req.IncludeExternal)
	}
	if err != nil {
		return nil, err
	}

	// Per-file failures are reported in Metadata.FailedFiles; the run as a
	// whole still succeeds. Whole-request failures return an error instead.
	return &Result{Status: "success", Output: output, Graph: g, Metadata: meta}, nil
}
