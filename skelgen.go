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

package skelgen

import (
	"context"
	"log/slog"

	"github.com/poiesic/skelgen/ai"
	"github.com/poiesic/skelgen/ai/openai"
	"github.com/poiesic/skelgen/cluster"
	"github.com/poiesic/skelgen/config"
	"github.com/poiesic/skelgen/core"
	"github.com/poiesic/skelgen/hierarchy"
	"github.com/poiesic/skelgen/lexicon"
	"github.com/poiesic/skelgen/lint"
	"github.com/poiesic/skelgen/naming"
	"github.com/poiesic/skelgen/shaper"
	"github.com/poiesic/skelgen/storage"
	"github.com/poiesic/skelgen/storage/badger"
)

// Generator wires the embedding cache, embedder, cluster engine and naming
// engine into one handle, and hands out builders that share them. One
// Generator owns one cache store; close it when done.
type Generator struct {
	store    storage.CacheStore
	embedder ai.ModelEmbedder
	oracle   lexicon.Oracle
	engine   *cluster.Engine
	shaper   *shaper.Shaper
	cfg      config.Config
	logger   *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*generatorOptions)

type generatorOptions struct {
	cfg      *config.Config
	oracle   lexicon.Oracle
	embedder ai.ModelEmbedder
	logger   *slog.Logger
}

// WithConfig supplies a full configuration instead of the defaults.
func WithConfig(cfg config.Config) GeneratorOption {
	return func(o *generatorOptions) {
		o.cfg = &cfg
	}
}

// WithOracle supplies the lexical oracle used for naming, gloss annotations
// and hypernym chains. Without one, naming falls back to keyword labels.
func WithOracle(oracle lexicon.Oracle) GeneratorOption {
	return func(o *generatorOptions) {
		o.oracle = oracle
	}
}

// WithEmbedder replaces the configured OpenAI-compatible embedder. The
// cache decorator is still applied on top.
func WithEmbedder(embedder ai.ModelEmbedder) GeneratorOption {
	return func(o *generatorOptions) {
		o.embedder = embedder
	}
}

// WithGeneratorLogger sets the logger handed to every wired component.
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(o *generatorOptions) {
		o.logger = logger
	}
}

// New creates a Generator. An empty dataDir keeps caches in memory; otherwise
// a badger store is opened (or created) at that path.
func New(dataDir string, opts ...GeneratorOption) (*Generator, error) {
	// Apply options
	options := &generatorOptions{}
	for _, opt := range opts {
		opt(options)
	}
	cfg := config.Default()
	if options.cfg != nil {
		cfg = *options.cfg
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Open cache store
	var store storage.CacheStore
	if dataDir == "" {
		store = storage.NewMemoryStore()
	} else {
		backend, err := badger.OpenBackend(dataDir, false)
		if err != nil {
			return nil, err
		}
		store = badger.NewStore(backend)
	}

	// Create embedder behind the cache decorator
	inner := options.embedder
	if inner == nil {
		aiConfig := ai.NewConfig(
			ai.WithHost(cfg.Embedding.Host),
			ai.WithModel(cfg.Embedding.Model),
		)
		embedder, err := openai.NewEmbedder(aiConfig)
		if err != nil {
			store.Close()
			return nil, err
		}
		inner = embedder
	}
	cached := ai.NewCachedEmbedder(inner, store)

	// Create naming engine
	oracle := options.oracle
	if oracle == nil {
		oracle = lexicon.NewStaticOracle()
	}
	namer, err := naming.NewNamer(oracle, naming.WithLogger(logger))
	if err != nil {
		store.Close()
		return nil, err
	}

	// Create cluster engine over the shared caches
	engine, err := cluster.NewEngine(cached, namer,
		cluster.WithParams(cfg.ClusterParams()),
		cluster.WithReductionCache(store),
		cluster.WithLogger(logger),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Generator{
		store:    store,
		embedder: cached,
		oracle:   oracle,
		engine:   engine,
		shaper:   shaper.NewShaper(shaper.WithLogger(logger)),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func (g *Generator) Close() error {
	if err := g.store.Close(); err != nil {
		g.logger.Error("error closing cache store", "err", err)
		return err
	}
	return nil
}

func (g *Generator) Embedder() ai.ModelEmbedder {
	return g.embedder
}

func (g *Generator) Engine() *cluster.Engine {
	return g.engine
}

func (g *Generator) Oracle() lexicon.Oracle {
	return g.oracle
}

func (g *Generator) Shaper() *shaper.Shaper {
	return g.shaper
}

func (g *Generator) Config() config.Config {
	return g.cfg
}

// Budget returns a fresh traversal budget sized per the configuration.
// A configured budget of zero or less means unlimited.
func (g *Generator) Budget() *core.TraversalBudget {
	limit := g.cfg.Hierarchy.TraversalBudget
	if limit < 0 {
		limit = 0
	}
	budget, _ := core.NewTraversalBudget(limit)
	return budget
}

// NewGraphBuilder creates a graph builder wired to the shared engine, oracle
// and configuration. Later options override the wired defaults.
func (g *Generator) NewGraphBuilder(opts ...hierarchy.GraphOption) (*hierarchy.GraphBuilder, error) {
	wired := []hierarchy.GraphOption{
		hierarchy.WithEngine(g.engine),
		hierarchy.WithOracle(g.oracle),
		hierarchy.WithSignificancePolicy(g.cfg.SignificancePolicy()),
		hierarchy.WithShapeConfig(g.cfg.ShapeConfig()),
		hierarchy.WithPoolSize(g.cfg.Hierarchy.PoolSize),
		hierarchy.WithGraphLogger(g.logger),
	}
	return hierarchy.NewGraphBuilder(append(wired, opts...)...)
}

// NewTermListBuilder creates a term-list builder wired to the shared engine,
// oracle and configuration. Later options override the wired defaults.
func (g *Generator) NewTermListBuilder(opts ...hierarchy.TermOption) (*hierarchy.TermListBuilder, error) {
	wired := []hierarchy.TermOption{
		hierarchy.WithTermEngine(g.engine),
		hierarchy.WithTermShapeConfig(g.cfg.ShapeConfig()),
		hierarchy.WithTermLogger(g.logger),
	}
	return hierarchy.NewTermListBuilder(g.oracle, append(wired, opts...)...)
}

// NewLinter creates a linter over the shared cached embedder.
func (g *Generator) NewLinter(opts ...lint.Option) (*lint.Linter, error) {
	wired := []lint.Option{lint.WithLogger(g.logger)}
	return lint.NewLinter(g.embedder, append(wired, opts...)...)
}

// Arrange runs the cluster engine directly on a flat term list and returns
// the shaped tree. The unclustered remainder lands in a keyword-labeled
// bucket alongside the groups.
func (g *Generator) Arrange(ctx context.Context, terms []string) (*core.Node, error) {
	arr, err := g.engine.Arrange(ctx, terms, nil)
	if err != nil {
		return nil, err
	}
	root := arr.Node()
	if len(arr.Unclustered) > 0 {
		var labels []string
		for _, child := range root.Children {
			labels = append(labels, child.Label)
		}
		label := naming.KeywordLabel(arr.Unclustered, labels, naming.DefaultKeywordThreshold)
		root.Put(label, "", core.NewLeafSet(arr.Unclustered...))
	}
	return g.shaper.Shape(root, g.cfg.ShapeConfig()), nil
}
