// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/skelgen"
	"github.com/poiesic/skelgen/analyze"
	"github.com/poiesic/skelgen/config"
	"github.com/poiesic/skelgen/core"
	"github.com/poiesic/skelgen/export"
	"github.com/poiesic/skelgen/hierarchy"
	"github.com/poiesic/skelgen/lint"
	"github.com/poiesic/skelgen/shaper"
	"github.com/urfave/cli/v2"
)

func main() {
	embeddingFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Path to the embedding cache directory (in-memory if empty)",
		},
	}
	shapeFlags := []cli.Flag{
		&cli.IntFlag{
			Name:  "min-leaf-size",
			Usage: "Minimum leaf list size before orphan merging",
			Value: 3,
		},
		&cli.BoolFlag{
			Name:  "merge-orphans",
			Usage: "Merge undersized leaf lists into sibling buckets",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "flatten-singles",
			Usage: "Collapse single-child category chains",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "normalize-casing",
			Usage: "Title-case labels and lowercase terms",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "preserve-roots",
			Usage: "Keep top-level categories during single-chain flattening",
			Value: true,
		},
	}
	outputFlag := &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file (stdout if empty)",
	}

	app := &cli.App{
		Name:  "skelgen",
		Usage: "Build hierarchical taxonomies from flat term lists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "arrange",
				Usage:     "Arrange a flat term list into named semantic groups",
				ArgsUsage: "<terms-file>",
				Action:    arrangeCommand,
				Flags: append([]cli.Flag{
					outputFlag,
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit JSON instead of annotated YAML",
					},
				}, embeddingFlags...),
			},
			{
				Name:      "shape",
				Usage:     "Re-shape an existing taxonomy document",
				ArgsUsage: "<skeleton.yaml>",
				Action:    shapeCommand,
				Flags:     append([]cli.Flag{outputFlag}, shapeFlags...),
			},
			{
				Name:      "build",
				Usage:     "Build a taxonomy from a tab-separated edge list",
				ArgsUsage: "<edges.tsv>",
				Action:    buildCommand,
				Flags: append(append([]cli.Flag{
					outputFlag,
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Cap on emitted leaf terms, for quick previews (0 = unlimited)",
					},
					&cli.IntFlag{
						Name:  "min-depth",
						Usage: "Depth at or above which categories are always kept",
						Value: 6,
					},
					&cli.IntFlag{
						Name:  "min-hyponyms",
						Usage: "Descendant count that keeps a deep category",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Worker pool size for sibling subtrees (0 = serial)",
					},
				}, shapeFlags...), embeddingFlags...),
			},
			{
				Name:      "analyze",
				Usage:     "Print structure statistics and suggested thresholds",
				ArgsUsage: "<skeleton.yaml>",
				Action:    analyzeCommand,
			},
			{
				Name:      "lint",
				Usage:     "Flag semantic outliers in leaf lists",
				ArgsUsage: "<skeleton.yaml>",
				Action:    lintCommand,
				Flags: append([]cli.Flag{
					outputFlag,
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Outlier score threshold in (0, 1]",
					},
					&cli.BoolFlag{
						Name:  "clean",
						Usage: "Write the taxonomy with flagged terms removed",
					},
				}, embeddingFlags...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig layers files, environment and then any flags the user set.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.IsSet("embedding-host") {
		cfg.Embedding.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedding.Model = c.String("embedding-model")
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("min-leaf-size") {
		cfg.Shape.MinLeafSize = c.Int("min-leaf-size")
	}
	if c.IsSet("merge-orphans") {
		cfg.Shape.MergeOrphans = c.Bool("merge-orphans")
	}
	if c.IsSet("flatten-singles") {
		cfg.Shape.FlattenSingles = c.Bool("flatten-singles")
	}
	if c.IsSet("normalize-casing") {
		cfg.Shape.NormalizeCasing = c.Bool("normalize-casing")
	}
	if c.IsSet("preserve-roots") {
		cfg.Shape.PreserveRoots = c.Bool("preserve-roots")
	}
	if c.IsSet("min-depth") {
		cfg.Hierarchy.MinDepth = c.Int("min-depth")
	}
	if c.IsSet("min-hyponyms") {
		cfg.Hierarchy.MinHyponyms = c.Int("min-hyponyms")
	}
	if c.IsSet("pool-size") {
		cfg.Hierarchy.PoolSize = c.Int("pool-size")
	}
	if c.IsSet("limit") {
		cfg.Hierarchy.TraversalBudget = c.Int("limit")
	}
	return cfg, nil
}

func newGenerator(cfg config.Config) (*skelgen.Generator, error) {
	return skelgen.New(cfg.DataDir, skelgen.WithConfig(cfg))
}

func inputPath(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one input file argument")
	}
	return c.Args().First(), nil
}

func readTerms(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return terms, nil
}

func readSkeleton(path string) (*core.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return export.ReadYAML(f)
}

func writeSkeleton(c *cli.Context, root *core.Node, asJSON bool) error {
	var w io.Writer = os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if asJSON {
		return export.WriteJSON(w, root)
	}
	return export.WriteYAML(w, root)
}

func arrangeCommand(c *cli.Context) error {
	ctx := context.Background()

	path, err := inputPath(c)
	if err != nil {
		return err
	}
	terms, err := readTerms(path)
	if err != nil {
		return fmt.Errorf("failed to read term list: %w", err)
	}
	if len(terms) == 0 {
		return fmt.Errorf("no terms in %s", path)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := newGenerator(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize generator: %w", err)
	}
	defer g.Close()

	root, err := g.Arrange(ctx, terms)
	if err != nil {
		return fmt.Errorf("arrangement failed: %w", err)
	}
	return writeSkeleton(c, root, c.Bool("json"))
}

func shapeCommand(c *cli.Context) error {
	path, err := inputPath(c)
	if err != nil {
		return err
	}
	root, err := readSkeleton(path)
	if err != nil {
		return fmt.Errorf("failed to read skeleton: %w", err)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	shaped := shaper.NewShaper().Shape(root, cfg.ShapeConfig())
	return writeSkeleton(c, shaped, false)
}

func buildCommand(c *cli.Context) error {
	ctx := context.Background()

	path, err := inputPath(c)
	if err != nil {
		return err
	}
	src, err := hierarchy.OpenEdgeList(path)
	if err != nil {
		return fmt.Errorf("failed to read edge list: %w", err)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := newGenerator(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize generator: %w", err)
	}
	defer g.Close()

	builder, err := g.NewGraphBuilder()
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}
	defer builder.Release()

	fmt.Fprintf(os.Stderr, "Source: %s (%d nodes)\n", path, src.Len())

	root, err := builder.Build(ctx, src, g.Budget())
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	return writeSkeleton(c, root, false)
}

func analyzeCommand(c *cli.Context) error {
	path, err := inputPath(c)
	if err != nil {
		return err
	}
	root, err := readSkeleton(path)
	if err != nil {
		return fmt.Errorf("failed to read skeleton: %w", err)
	}

	stats := analyze.ComputeStats(root)
	suggested := analyze.SuggestThresholds(stats)

	fmt.Printf("Max depth:        %d\n", stats.MaxDepth)
	fmt.Printf("Total nodes:      %d\n", stats.TotalNodes)
	fmt.Printf("Total leaves:     %d\n", stats.TotalLeaves)
	fmt.Printf("Leaf lists:       %d\n", stats.LeafLists)
	fmt.Printf("Avg branching:    %.2f\n", stats.AvgBranching())
	fmt.Printf("Avg leaf size:    %.2f\n", stats.AvgLeafSize())
	fmt.Println()
	fmt.Printf("Suggested min depth:     %d\n", suggested.Policy.MinDepth)
	fmt.Printf("Suggested min hyponyms:  %d\n", suggested.Policy.MinHyponyms)
	fmt.Printf("Suggested min leaf size: %d\n", suggested.MinLeafSize)
	return nil
}

func lintCommand(c *cli.Context) error {
	ctx := context.Background()

	path, err := inputPath(c)
	if err != nil {
		return err
	}
	root, err := readSkeleton(path)
	if err != nil {
		return fmt.Errorf("failed to read skeleton: %w", err)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := newGenerator(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize generator: %w", err)
	}
	defer g.Close()

	var opts []lint.Option
	if c.IsSet("threshold") {
		opts = append(opts, lint.WithThreshold(c.Float64("threshold")))
	}
	linter, err := g.NewLinter(opts...)
	if err != nil {
		return fmt.Errorf("failed to create linter: %w", err)
	}

	report, err := linter.LintTree(ctx, root)
	if err != nil {
		return fmt.Errorf("lint failed: %w", err)
	}

	if c.Bool("clean") {
		return writeSkeleton(c, lint.Clean(root, report), false)
	}

	if len(report.Issues) == 0 {
		fmt.Fprintln(os.Stderr, "No outliers found")
		return nil
	}
	for _, issue := range report.Issues {
		for _, o := range issue.Outliers {
			fmt.Printf("%s: %s (score %.3f)\n", issue.Path, o.Term, o.Score)
		}
	}
	return nil
}
