package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"codegraph/internal/analysis"
	"codegraph/internal/analyzer"
	"codegraph/internal/config"
	"codegraph/internal/engine"
	"codegraph/internal/gitdiff"
	"codegraph/internal/graph"
	"codegraph/internal/index"
)

var (
	rootCmd = &cobra.Command{
		Use:   "codegraph",
		Short: "Code understanding engine: parse source trees into a relationship graph",
	}
	configPath string
	indexPath  string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&indexPath, "index", "i", "", "Path to the SQLite index (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", engine.FormatGraph, "Output format: graph or map")
	analyzeCmd.Flags().BoolVar(&includeExternal, "include-external", false, "Keep placeholder nodes for unresolved names")
	impactCmd.Flags().StringVar(&impactBase, "base", "HEAD", "Git ref to diff against")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write the export to a file instead of stdout")
	exportCmd.Flags().BoolVar(&includeExternal, "include-external", false, "Keep placeholder nodes for unresolved names")
	neighborsCmd.Flags().IntVar(&neighborHops, "hops", 1, "Traversal depth")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(outlineCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(neighborsCmd)
}

func setup() (*config.Config, *slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if indexPath != "" {
		cfg.Index.Path = indexPath
	}
	return cfg, log, nil
}

// newEngine wires the engine with its index store. The store is optional:
// a store that fails to open degrades to a from-scratch run.
func newEngine(cfg *config.Config, log *slog.Logger) (*engine.Engine, *index.Store) {
	opts := []engine.Option{engine.WithLogger(log)}
	var store *index.Store
	if cfg.Index.Path != "" {
		s, err := index.Open(cfg.Index.Path)
		if err != nil {
			log.Warn("index unavailable, running without persistence", "path", cfg.Index.Path, "error", err)
		} else {
			store = s
			opts = append(opts, engine.WithStore(s))
		}
	}
	return engine.New(cfg, opts...), store
}

func targetArg(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Project.Root
}

func runAnalysis(target, format string) (*engine.Result, error) {
	cfg, log, err := setup()
	if err != nil {
		return nil, err
	}
	if target == "" {
		target = cfg.Project.Root
	}

	eng, store := newEngine(cfg, log)
	if store != nil {
		defer store.Close()
	}

	return eng.Analyze(context.Background(), engine.Request{
		TargetPath:      target,
		Format:          format,
		IncludeExternal: includeExternal,
	})
}

var (
	analyzeFormat   string
	includeExternal bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a file or directory and print the relationship graph",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) > 0 {
			target = args[0]
		}
		res, err := runAnalysis(target, analyzeFormat)
		if err != nil {
			return err
		}
		fmt.Println(res.Output)
		fmt.Fprintf(os.Stderr, "%s: %d files, %d nodes, %d edges in %v\n",
			res.Status, res.Metadata.FilesAnalyzed+res.Metadata.FilesSkipped,
			res.Graph.NodeCount(), res.Graph.EdgeCount(), res.Metadata.Duration)
		return nil
	},
}

var mapCmd = &cobra.Command{
	Use:   "map [path]",
	Short: "Print a compact text map of the codebase",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) > 0 {
			target = args[0]
		}
		res, err := runAnalysis(target, engine.FormatMap)
		if err != nil {
			return err
		}
		fmt.Print(res.Output)
		return nil
	},
}

var outlineCmd = &cobra.Command{
	Use:   "outline <file>",
	Short: "Print the structural summary of a single file as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := setup()
		if err != nil {
			return err
		}
		summary, err := analyzer.New(log).AnalyzeFile(context.Background(), args[0])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Analyze and write the full graph export as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) > 0 {
			target = args[0]
		}
		res, err := runAnalysis(target, engine.FormatGraph)
		if err != nil {
			return err
		}
		if exportOut == "" {
			fmt.Println(res.Output)
			return nil
		}
		if err := os.WriteFile(exportOut, []byte(res.Output), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %d nodes, %d edges to %s\n",
			res.Graph.NodeCount(), res.Graph.EdgeCount(), exportOut)
		return nil
	},
}

var impactBase string

var impactCmd = &cobra.Command{
	Use:   "impact [path]",
	Short: "Report graph nodes affected by uncommitted or recent changes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		target := targetArg(cfg, args)

		changes, err := gitdiff.ChangedFiles(target, impactBase)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			fmt.Println("no changes detected")
			return nil
		}

		eng, store := newEngine(cfg, log)
		if store != nil {
			defer store.Close()
		}
		res, err := eng.Analyze(context.Background(), engine.Request{
			TargetPath: target,
			Format:     engine.FormatMap,
		})
		if err != nil {
			return err
		}

		report := analysis.Impact(res.Graph, changes)
		fmt.Printf("%d symbols directly affected\n", len(report.DirectlyAffected))
		for _, n := range report.DirectlyAffected {
			fmt.Printf("  %s (%s:%d)\n", n.ID, n.FilePath, n.StartLine)
		}
		fmt.Printf("%d symbols indirectly affected\n", len(report.IndirectlyAffected))
		for _, n := range report.IndirectlyAffected {
			fmt.Printf("  %s (%s:%d)\n", n.ID, n.FilePath, n.StartLine)
		}
		return nil
	},
}

var neighborHops int

var neighborsCmd = &cobra.Command{
	Use:   "neighbors <node-id>",
	Short: "Print the stored-graph neighborhood of a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		if cfg.Index.Path == "" {
			return fmt.Errorf("neighbors requires a persisted index; run analyze first")
		}

		store, err := index.Open(cfg.Index.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		g, err := store.LoadGraph(context.Background())
		if err != nil {
			return err
		}
		if g.Node(args[0]) == nil {
			return fmt.Errorf("node %s not found in index", args[0])
		}
		sub := g.Neighborhood([]string{args[0]}, graph.NeighborhoodConfig{MaxHops: neighborHops})

		data, err := json.MarshalIndent(sub.ToExport(g), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}
