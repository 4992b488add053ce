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


// Package config loads skelgen settings with a fixed precedence: built-in
// defaults, then ~/.config/skelgen/config.yaml, then ./skelgen.yaml, then
// SKELGEN_* environment variables. Later sources override earlier ones
// key by key.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/skelgen/cluster"
	"github.com/poiesic/skelgen/hierarchy"
	"github.com/poiesic/skelgen/shaper"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "SKELGEN_"

// Embedding selects the embedding backend.
type Embedding struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// Cluster tunes the arrangement pipeline.
type Cluster struct {
	MinGroupSize      int     `yaml:"min_group_size"`
	QualityThreshold  float64 `yaml:"quality_threshold"`
	MaxLeafSize       int     `yaml:"max_leaf_size"`
	MaxRecursionDepth int     `yaml:"max_recursion_depth"`
	NNeighbors        int     `yaml:"umap_n_neighbors"`
	MinDist           float64 `yaml:"umap_min_dist"`
	NComponents       int     `yaml:"umap_n_components"`
	Seed              int64   `yaml:"seed"`
	// MinSamples of zero derives the density floor from the group size.
	MinSamples int `yaml:"hdbscan_min_samples"`
}

// Shape tunes the constraint shaper.
type Shape struct {
	MinLeafSize     int  `yaml:"min_leaf_size"`
	MergeOrphans    bool `yaml:"merge_orphans"`
	FlattenSingles  bool `yaml:"flatten_singles"`
	NormalizeCasing bool `yaml:"normalize_casing"`
	PreserveRoots   bool `yaml:"preserve_roots"`
}

// Hierarchy tunes graph traversal.
type Hierarchy struct {
	MinDepth    int `yaml:"min_depth"`
	MinHyponyms int `yaml:"min_hyponyms"`
	// TraversalBudget of zero means unlimited.
	TraversalBudget int `yaml:"traversal_budget"`
	PoolSize        int `yaml:"pool_size"`
}

// Config is the full configuration surface.
type Config struct {
	Embedding Embedding `yaml:"embedding"`
	Cluster   Cluster   `yaml:"cluster"`
	Shape     Shape     `yaml:"shape"`
	Hierarchy Hierarchy `yaml:"hierarchy"`
	DataDir   string    `yaml:"data_dir"`
	LogLevel  string    `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Embedding: Embedding{
			Host:  "http://localhost:11434/v1",
			Model: "embeddinggemma",
		},
		Cluster: Cluster{
			MinGroupSize:      5,
			QualityThreshold:  0.2,
			MaxLeafSize:       40,
			MaxRecursionDepth: 2,
			NNeighbors:        15,
			MinDist:           0.1,
			NComponents:       5,
			Seed:              42,
		},
		Shape: Shape{
			MinLeafSize:     3,
			MergeOrphans:    true,
			FlattenSingles:  true,
			NormalizeCasing: true,
			PreserveRoots:   true,
		},
		Hierarchy: Hierarchy{
			MinDepth:    6,
			MinHyponyms: 10,
		},
		LogLevel: "info",
	}
}

// Load resolves the configuration from the standard file locations and
// the environment. Missing files are fine; unreadable ones are not.
func Load() (Config, error) {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "skelgen", "config.yaml"))
	}
	paths = append(paths, "skelgen.yaml")

	cfg, err := LoadFiles(paths...)
	if err != nil {
		return Config{}, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// LoadFiles layers the given YAML files, in order, over the defaults.
// Files that do not exist are skipped.
func LoadFiles(paths ...string) (Config, error) {
	cfg := Default()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
		// Unmarshal over the accumulated config so absent keys keep
		// their current values.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SKELGEN_* variables using the given
// lookup. Unparseable numeric or boolean values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	setString(lookup, "EMBEDDING_HOST", &c.Embedding.Host)
	setString(lookup, "EMBEDDING_MODEL", &c.Embedding.Model)
	setInt(lookup, "MIN_GROUP_SIZE", &c.Cluster.MinGroupSize)
	setFloat(lookup, "QUALITY_THRESHOLD", &c.Cluster.QualityThreshold)
	setInt(lookup, "MAX_LEAF_SIZE", &c.Cluster.MaxLeafSize)
	setInt(lookup, "MAX_RECURSION_DEPTH", &c.Cluster.MaxRecursionDepth)
	setInt(lookup, "UMAP_N_NEIGHBORS", &c.Cluster.NNeighbors)
	setFloat(lookup, "UMAP_MIN_DIST", &c.Cluster.MinDist)
	setInt(lookup, "UMAP_N_COMPONENTS", &c.Cluster.NComponents)
	setInt64(lookup, "SEED", &c.Cluster.Seed)
	setInt(lookup, "HDBSCAN_MIN_SAMPLES", &c.Cluster.MinSamples)
	setInt(lookup, "MIN_LEAF_SIZE", &c.Shape.MinLeafSize)
	setBool(lookup, "MERGE_ORPHANS", &c.Shape.MergeOrphans)
	setBool(lookup, "FLATTEN_SINGLES", &c.Shape.FlattenSingles)
	setBool(lookup, "NORMALIZE_CASING", &c.Shape.NormalizeCasing)
	setBool(lookup, "PRESERVE_ROOTS", &c.Shape.PreserveRoots)
	setInt(lookup, "MIN_DEPTH", &c.Hierarchy.MinDepth)
	setInt(lookup, "MIN_HYPONYMS", &c.Hierarchy.MinHyponyms)
	setInt(lookup, "TRAVERSAL_BUDGET", &c.Hierarchy.TraversalBudget)
	setInt(lookup, "POOL_SIZE", &c.Hierarchy.PoolSize)
	setString(lookup, "DATA_DIR", &c.DataDir)
	setString(lookup, "LOG_LEVEL", &c.LogLevel)
}

func setString(lookup func(string) (string, bool), key string, dst *string) {
	if v, ok := lookup(EnvPrefix + key); ok {
		*dst = v
	}
}

func setInt(lookup func(string) (string, bool), key string, dst *int) {
	if v, ok := lookup(EnvPrefix + key); ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setInt64(lookup func(string) (string, bool), key string, dst *int64) {
	if v, ok := lookup(EnvPrefix + key); ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = parsed
		}
	}
}

func setFloat(lookup func(string) (string, bool), key string, dst *float64) {
	if v, ok := lookup(EnvPrefix + key); ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = parsed
		}
	}
}

func setBool(lookup func(string) (string, bool), key string, dst *bool) {
	if v, ok := lookup(EnvPrefix + key); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}

// ClusterParams converts the cluster section into engine parameters.
func (c Config) ClusterParams() cluster.Params {
	return cluster.Params{
		MinGroupSize:      c.Cluster.MinGroupSize,
		QualityThreshold:  c.Cluster.QualityThreshold,
		MaxLeafSize:       c.Cluster.MaxLeafSize,
		MaxRecursionDepth: c.Cluster.MaxRecursionDepth,
		MinSamples:        c.Cluster.MinSamples,
		Reduction: cluster.ReductionParams{
			NNeighbors:  c.Cluster.NNeighbors,
			MinDist:     c.Cluster.MinDist,
			NComponents: c.Cluster.NComponents,
			Seed:        c.Cluster.Seed,
		},
	}
}

// ShapeConfig converts the shape section into shaper configuration.
func (c Config) ShapeConfig() shaper.Config {
	return shaper.Config{
		MinLeafSize:     c.Shape.MinLeafSize,
		MergeOrphans:    c.Shape.MergeOrphans,
		FlattenSingles:  c.Shape.FlattenSingles,
		NormalizeCasing: c.Shape.NormalizeCasing,
		PreserveRoots:   c.Shape.PreserveRoots,
	}
}

// SignificancePolicy converts the hierarchy section into a policy.
func (c Config) SignificancePolicy() hierarchy.SignificancePolicy {
	return hierarchy.SignificancePolicy{
		MinDepth:    c.Hierarchy.MinDepth,
		MinHyponyms: c.Hierarchy.MinHyponyms,
	}
}
