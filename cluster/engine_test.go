package cluster_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/skelgen/ai/mock"
	"github.com/poiesic/skelgen/cluster"
	"github.com/poiesic/skelgen/storage"
)

// separableEmbedder returns a mock whose vectors place fruit terms and
// vehicle terms in two well-separated regions, with a small per-term spread.
func separableEmbedder() *mock.MockEmbedder {
	m := mock.NewMockEmbedder()
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = syntheticVector(text)
		}
		return out, nil
	}
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return syntheticVector(text), nil
	}
	return m
}

func syntheticVector(text string) []float32 {
	v := make([]float32, 8)
	jitter := float32(len(text)%7) * 0.01
	switch {
	case len(text) >= 5 && text[:5] == "fruit":
		v[0] = 1
		v[2] = jitter + float32(text[len(text)-1]-'0')*0.01
	case len(text) >= 7 && text[:7] == "vehicle":
		v[1] = 1
		v[3] = jitter + float32(text[len(text)-1]-'0')*0.01
	default:
		v[4] = 1
		v[5] = jitter
	}
	return v
}

func termSets() (fruits, vehicles []string) {
	for i := 0; i < 20; i++ {
		fruits = append(fruits, fmt.Sprintf("fruit%02d", i))
		vehicles = append(vehicles, fmt.Sprintf("vehicle%02d", i))
	}
	return fruits, vehicles
}

// stubNamer labels groups by their dominant prefix.
type stubNamer struct{}

func (stubNamer) NameGroup(_ context.Context, terms []string, medoid string, excluded []string, contextTerms []string) (string, string, error) {
	if len(terms) == 0 {
		return "", "", errors.New("empty group")
	}
	if terms[0][:5] == "fruit" {
		return "Fruit", "edible plant products", nil
	}
	return "Vehicle", "", nil
}

func newTestEngine(t *testing.T, namer cluster.Namer, opts ...cluster.Option) *cluster.Engine {
	t.Helper()
	engine, err := cluster.NewEngine(separableEmbedder(), namer, opts...)
	require.NoError(t, err)
	return engine
}

func TestEngine_Arrange_SeparatesGroups(t *testing.T) {
	ctx := context.Background()
	fruits, vehicles := termSets()
	engine := newTestEngine(t, stubNamer{})

	arrangement, err := engine.Arrange(ctx, append(fruits, vehicles...), nil)
	require.NoError(t, err)

	require.Len(t, arrangement.Groups, 2)
	assert.Empty(t, arrangement.Unclustered)

	byLabel := map[string][]string{}
	for _, g := range arrangement.Groups {
		byLabel[g.Label] = g.Terms
	}
	require.Contains(t, byLabel, "Fruit")
	require.Contains(t, byLabel, "Vehicle")
	assert.Len(t, byLabel["Fruit"], 20)
	assert.Len(t, byLabel["Vehicle"], 20)
	for _, term := range byLabel["Fruit"] {
		assert.Contains(t, term, "fruit")
	}
}

func TestEngine_Arrange_Deterministic(t *testing.T) {
	ctx := context.Background()
	fruits, vehicles := termSets()
	terms := append(fruits, vehicles...)
	engine := newTestEngine(t, stubNamer{})

	first, err := engine.Arrange(ctx, terms, nil)
	require.NoError(t, err)
	second, err := engine.Arrange(ctx, terms, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_Arrange_SmallInputFloor(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, stubNamer{})

	arrangement, err := engine.Arrange(ctx, []string{"fruit01", "fruit02", "fruit03"}, nil)
	require.NoError(t, err)
	assert.Empty(t, arrangement.Groups)
	assert.Equal(t, []string{"fruit01", "fruit02", "fruit03"}, arrangement.Unclustered)
}

func TestEngine_Arrange_DedupesInput(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, stubNamer{})

	arrangement, err := engine.Arrange(ctx, []string{"fruit01", "FRUIT01", " fruit01 ", "fruit02"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"fruit01", "fruit02"}, arrangement.Unclustered)
}

func TestEngine_Arrange_DegenerateEmbeddings(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMockEmbedder()
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{1, 2, 3} // all identical
		}
		return out, nil
	}

	engine, err := cluster.NewEngine(m, stubNamer{})
	require.NoError(t, err)

	fruits, vehicles := termSets()
	arrangement, err := engine.Arrange(ctx, append(fruits, vehicles...), nil)
	require.NoError(t, err, "degenerate geometry is a soft path, not an error")
	assert.Empty(t, arrangement.Groups)
	assert.Len(t, arrangement.Unclustered, 40)
}

func TestEngine_Arrange_EmbedderFailurePropagates(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("connection refused")
	m := mock.NewMockEmbedder()
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, wantErr
	}

	engine, err := cluster.NewEngine(m, stubNamer{})
	require.NoError(t, err)

	fruits, vehicles := termSets()
	_, err = engine.Arrange(ctx, append(fruits, vehicles...), nil)
	assert.ErrorIs(t, err, wantErr)
}

func TestEngine_Arrange_FallbackLabels(t *testing.T) {
	ctx := context.Background()
	fruits, vehicles := termSets()
	engine := newTestEngine(t, nil) // no namer: positional fallback

	arrangement, err := engine.Arrange(ctx, append(fruits, vehicles...), nil)
	require.NoError(t, err)
	require.Len(t, arrangement.Groups, 2)
	assert.Equal(t, "Group 1", arrangement.Groups[0].Label)
	assert.Equal(t, "Group 2", arrangement.Groups[1].Label)
}

// collidingNamer always proposes the same label.
type collidingNamer struct{}

func (collidingNamer) NameGroup(context.Context, []string, string, []string, []string) (string, string, error) {
	return "Stuff", "", nil
}

func TestEngine_Arrange_UniqueLabels(t *testing.T) {
	ctx := context.Background()
	fruits, vehicles := termSets()
	engine := newTestEngine(t, collidingNamer{})

	arrangement, err := engine.Arrange(ctx, append(fruits, vehicles...), nil)
	require.NoError(t, err)
	require.Len(t, arrangement.Groups, 2)
	assert.Equal(t, "Stuff", arrangement.Groups[0].Label)
	assert.Equal(t, "Stuff 2", arrangement.Groups[1].Label)
}

func TestEngine_Arrange_UsesReductionCache(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	defer store.Close()

	fruits, vehicles := termSets()
	terms := append(fruits, vehicles...)

	engine := newTestEngine(t, stubNamer{}, cluster.WithReductionCache(store))

	first, err := engine.Arrange(ctx, terms, nil)
	require.NoError(t, err)
	second, err := engine.Arrange(ctx, terms, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second, "cached reduction must not change results")
}

func TestEngine_Arrange_RecursesIntoOversizedGroups(t *testing.T) {
	ctx := context.Background()
	fruits, vehicles := termSets()
	params := cluster.DefaultParams()
	params.MaxLeafSize = 10 // both 20-term groups exceed this
	params.MaxRecursionDepth = 1

	engine := newTestEngine(t, stubNamer{}, cluster.WithParams(params))

	arrangement, err := engine.Arrange(ctx, append(fruits, vehicles...), nil)
	require.NoError(t, err)
	require.Len(t, arrangement.Groups, 2)
	for _, g := range arrangement.Groups {
		if g.Sub != nil {
			assert.True(t, g.Sub.IsCategory())
			assert.ElementsMatch(t, g.Terms, g.Sub.CollectTerms(),
				"subdivision must preserve the group's membership")
		}
	}
}

func TestEngine_InvalidParams(t *testing.T) {
	m := mock.NewMockEmbedder()

	_, err := cluster.NewEngine(m, nil, cluster.WithParams(cluster.Params{MinGroupSize: 0}))
	assert.ErrorIs(t, err, cluster.ErrInvalidThreshold)

	params := cluster.DefaultParams()
	params.QualityThreshold = 1.5
	_, err = cluster.NewEngine(m, nil, cluster.WithParams(params))
	assert.ErrorIs(t, err, cluster.ErrInvalidThreshold)
}

func TestArrangement_Node(t *testing.T) {
	arrangement := cluster.Arrangement{
		Groups: []cluster.Group{
			{Label: "Fruit", Annotation: "edible plant products", Terms: []string{"apple", "banana"}},
			{Label: "Vehicle", Terms: []string{"car", "truck"}},
		},
		Unclustered: []string{"zeppelin"},
	}

	node := arrangement.Node()
	require.True(t, node.IsCategory())
	require.Len(t, node.Children, 2)

	fruit, ok := node.Find("fruit")
	require.True(t, ok)
	assert.Equal(t, "edible plant products", fruit.Annotation)
	assert.Equal(t, []string{"apple", "banana"}, fruit.Node.Terms)

	_, ok = node.Find("zeppelin")
	assert.False(t, ok, "unclustered terms are the caller's concern")
}
