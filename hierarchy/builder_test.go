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


package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/skelgen/ai/mock"
	"github.com/poiesic/skelgen/cluster"
	"github.com/poiesic/skelgen/core"
	"github.com/poiesic/skelgen/lexicon"
	"github.com/poiesic/skelgen/shaper"
)

// mapSource is an in-memory Source. Node names default to the id string.
type mapSource struct {
	roots    []NodeID
	children map[NodeID][]NodeID
	names    map[NodeID]string
}

func (s *mapSource) Roots() []NodeID             { return s.roots }
func (s *mapSource) Children(id NodeID) []NodeID { return s.children[id] }
func (s *mapSource) Name(id NodeID) string {
	if name, ok := s.names[id]; ok {
		return name
	}
	return string(id)
}

func animalSource() *mapSource {
	return &mapSource{
		roots: []NodeID{"animal"},
		children: map[NodeID][]NodeID{
			"animal": {"bird", "fish", "insect"},
			"bird":   {"eagle", "hawk", "sparrow"},
			"fish":   {"herring", "salmon", "trout", "tuna"},
			"insect": {"ant", "bee"},
		},
	}
}

func findChild(t *testing.T, node *core.Node, label string) *core.Child {
	t.Helper()
	child, ok := node.Find(label)
	require.True(t, ok, "missing child %q", label)
	return child
}

func TestGraphBuilder_Build(t *testing.T) {
	builder, err := NewGraphBuilder()
	require.NoError(t, err)

	root, err := builder.Build(context.Background(), animalSource(), nil)
	require.NoError(t, err)

	animal := findChild(t, root, "Animal")
	require.True(t, animal.Node.IsCategory())

	bird := findChild(t, animal.Node, "Bird")
	require.True(t, bird.Node.IsLeaf())
	assert.Equal(t, []string{"eagle", "hawk", "sparrow"}, bird.Node.Terms)

	fish := findChild(t, animal.Node, "Fish")
	require.True(t, fish.Node.IsLeaf())
	assert.Equal(t, []string{"herring", "salmon", "trout", "tuna"}, fish.Node.Terms)

	// The two insects are below the leaf minimum and end up bucketed.
	assert.ElementsMatch(t,
		[]string{"ant", "bee", "eagle", "hawk", "sparrow", "herring", "salmon", "trout", "tuna"},
		root.CollectTerms())
	assert.Len(t, animal.Node.Children, 3)
}

func TestGraphBuilder_NilSource(t *testing.T) {
	builder, err := NewGraphBuilder()
	require.NoError(t, err)

	_, err = builder.Build(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrSourceRequired)
}

func TestGraphBuilder_EmptySource(t *testing.T) {
	builder, err := NewGraphBuilder()
	require.NoError(t, err)

	_, err = builder.Build(context.Background(), &mapSource{}, nil)
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestGraphBuilder_SelfMatchFilter(t *testing.T) {
	src := &mapSource{
		roots: []NodeID{"food"},
		children: map[NodeID][]NodeID{
			"food": {"fish"},
			"fish": {"fish-leaf", "salmon", "trout"},
		},
		names: map[NodeID]string{"fish-leaf": "Fish"},
	}

	builder, err := NewGraphBuilder(
		WithSignificancePolicy(SignificancePolicy{MinDepth: 0, MinHyponyms: 100}),
		WithShapeConfig(shaper.Config{MinLeafSize: 3}),
	)
	require.NoError(t, err)

	root, err := builder.Build(context.Background(), src, nil)
	require.NoError(t, err)

	food := findChild(t, root, "food")
	fish := findChild(t, food.Node, "fish")
	require.True(t, fish.Node.IsLeaf())
	assert.Equal(t, []string{"salmon", "trout"}, fish.Node.Terms)
}

func TestGraphBuilder_BudgetConservation(t *testing.T) {
	builder, err := NewGraphBuilder()
	require.NoError(t, err)

	for _, limit := range []int{1, 3, 5, 8} {
		budget, err := core.NewTraversalBudget(limit)
		require.NoError(t, err)

		root, err := builder.Build(context.Background(), animalSource(), budget)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(root.CollectTerms()), limit, "cap %d", limit)
	}
}

func TestGraphBuilder_ZeroCapMeansUnlimited(t *testing.T) {
	builder, err := NewGraphBuilder()
	require.NoError(t, err)

	zero, err := core.NewTraversalBudget(0)
	require.NoError(t, err)

	capped, err := builder.Build(context.Background(), animalSource(), zero)
	require.NoError(t, err)
	uncapped, err := builder.Build(context.Background(), animalSource(), nil)
	require.NoError(t, err)

	assert.Equal(t, uncapped, capped)
}

func TestGraphBuilder_ParallelMatchesSerial(t *testing.T) {
	serial, err := NewGraphBuilder()
	require.NoError(t, err)
	parallel, err := NewGraphBuilder(WithPoolSize(4))
	require.NoError(t, err)
	defer parallel.Release()

	want, err := serial.Build(context.Background(), animalSource(), nil)
	require.NoError(t, err)
	got, err := parallel.Build(context.Background(), animalSource(), nil)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

// nestedSource builds a two-root graph whose every level fans out wider
// than a small worker pool, so parent tasks must submit child tasks while
// all workers are already busy.
func nestedSource() *mapSource {
	src := &mapSource{
		roots:    []NodeID{"kingdom-a", "kingdom-b"},
		children: map[NodeID][]NodeID{},
	}
	for _, k := range []string{"a", "b"} {
		kingdom := NodeID("kingdom-" + k)
		for i := 0; i < 3; i++ {
			order := NodeID(fmt.Sprintf("order-%s%d", k, i))
			src.children[kingdom] = append(src.children[kingdom], order)
			for j := 0; j < 3; j++ {
				family := NodeID(fmt.Sprintf("family-%s%d%d", k, i, j))
				src.children[order] = append(src.children[order], family)
				for l := 0; l < 3; l++ {
					leaf := NodeID(fmt.Sprintf("species-%s%d%d%d", k, i, j, l))
					src.children[family] = append(src.children[family], leaf)
				}
			}
		}
	}
	return src
}

func TestGraphBuilder_NestedParallelSmallPool(t *testing.T) {
	serial, err := NewGraphBuilder()
	require.NoError(t, err)
	parallel, err := NewGraphBuilder(WithPoolSize(2))
	require.NoError(t, err)
	defer parallel.Release()

	want, err := serial.Build(context.Background(), nestedSource(), nil)
	require.NoError(t, err)

	// Every worker is occupied by an inner node waiting on its own
	// children here, so saturated submits must run inline for the walk
	// to finish at all.
	type outcome struct {
		root *core.Node
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		root, err := parallel.Build(context.Background(), nestedSource(), nil)
		done <- outcome{root: root, err: err}
	}()

	select {
	case got := <-done:
		require.NoError(t, got.err)
		assert.Equal(t, want, got.root)
	case <-time.After(10 * time.Second):
		t.Fatal("pooled traversal of a nested source never completed")
	}
}

func TestGraphBuilder_GlossAnnotations(t *testing.T) {
	oracle := lexicon.NewStaticOracle()
	oracle.AddSense("bird", lexicon.Sense{
		Name:            "bird",
		LexicalCategory: "noun.animal",
		Gloss:           "warm-blooded egg-laying vertebrate",
	})

	builder, err := NewGraphBuilder(WithOracle(oracle))
	require.NoError(t, err)

	root, err := builder.Build(context.Background(), animalSource(), nil)
	require.NoError(t, err)

	animal := findChild(t, root, "Animal")
	bird := findChild(t, animal.Node, "Bird")
	assert.Equal(t, "warm-blooded egg-laying vertebrate", bird.Annotation)
}

type failingOracle struct{}

func (failingOracle) Senses(context.Context, string) ([]lexicon.Sense, error) {
	return nil, errors.New("oracle offline")
}

func (failingOracle) LowestCommonAncestor(context.Context, lexicon.Sense, lexicon.Sense) (lexicon.Sense, bool, error) {
	return lexicon.Sense{}, false, errors.New("oracle offline")
}

func (failingOracle) Hypernym(context.Context, lexicon.Sense) (lexicon.Sense, bool, error) {
	return lexicon.Sense{}, false, errors.New("oracle offline")
}

func TestGraphBuilder_OracleFailurePropagates(t *testing.T) {
	builder, err := NewGraphBuilder(WithOracle(failingOracle{}))
	require.NoError(t, err)

	_, err = builder.Build(context.Background(), animalSource(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lexical oracle")
}

// syntheticVector keys the dominant components off the term prefix so
// fruit and vehicle terms are cleanly separable.
func syntheticVector(text string) []float32 {
	v := make([]float32, 8)
	base := 0
	if strings.HasPrefix(text, "vehicle") {
		base = 4
	}
	h := fnv.New32a()
	h.Write([]byte(text))
	jitter := float32(h.Sum32()%97) / 970.0
	v[base] = 1
	v[base+1] = 0.5 + jitter
	v[base+2] = jitter
	return v
}

type prefixNamer struct{}

func (prefixNamer) NameGroup(_ context.Context, terms []string, _ string, _ []string, _ []string) (string, string, error) {
	if len(terms) > 0 && strings.HasPrefix(terms[0], "fruit") {
		return "Fruits", "", nil
	}
	return "Vehicles", "", nil
}

// oversizedSource holds one category of 20 leaves, ten per prefix.
func oversizedSource() *mapSource {
	leaves := make([]NodeID, 0, 20)
	for i := 0; i < 10; i++ {
		leaves = append(leaves, NodeID(fmt.Sprintf("fruit-%02d", i)))
	}
	for i := 0; i < 10; i++ {
		leaves = append(leaves, NodeID(fmt.Sprintf("vehicle-%02d", i)))
	}
	return &mapSource{
		roots: []NodeID{"stuff"},
		children: map[NodeID][]NodeID{
			"stuff":  {"things"},
			"things": leaves,
		},
	}
}

func TestGraphBuilder_RegrowsOversizedLeafSets(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = syntheticVector(text)
		}
		return out, nil
	}

	params := cluster.DefaultParams()
	params.MaxLeafSize = 10
	engine, err := cluster.NewEngine(embedder, prefixNamer{}, cluster.WithParams(params))
	require.NoError(t, err)

	builder, err := NewGraphBuilder(WithEngine(engine))
	require.NoError(t, err)

	root, err := builder.Build(context.Background(), oversizedSource(), nil)
	require.NoError(t, err)

	stuff := findChild(t, root, "Stuff")
	things := findChild(t, stuff.Node, "Things")
	require.True(t, things.Node.IsCategory())

	fruits := findChild(t, things.Node, "Fruits")
	require.True(t, fruits.Node.IsLeaf())
	for _, term := range fruits.Node.Terms {
		assert.True(t, strings.HasPrefix(term, "fruit"), "unexpected term %q", term)
	}

	vehicles := findChild(t, things.Node, "Vehicles")
	require.True(t, vehicles.Node.IsLeaf())
	for _, term := range vehicles.Node.Terms {
		assert.True(t, strings.HasPrefix(term, "vehicle"), "unexpected term %q", term)
	}

	assert.Len(t, root.CollectTerms(), 20)
}

func TestGraphBuilder_EmbedderFailurePropagates(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("backend unreachable")
	}

	params := cluster.DefaultParams()
	params.MaxLeafSize = 10
	engine, err := cluster.NewEngine(embedder, prefixNamer{}, cluster.WithParams(params))
	require.NoError(t, err)

	builder, err := NewGraphBuilder(WithEngine(engine))
	require.NoError(t, err)

	_, err = builder.Build(context.Background(), oversizedSource(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cluster engine")
}
