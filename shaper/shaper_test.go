package shaper

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/skelgen/core"
)

func leaf(terms ...string) *core.Node {
	return core.NewLeafSet(terms...)
}

func category(build func(n *core.Node)) *core.Node {
	n := core.NewCategory()
	build(n)
	return n
}

func TestShape_TautologyCollapse(t *testing.T) {
	// {"Fish": {"Fish": ["salmon", "trout"]}} -> {"Fish": ["salmon", "trout"]}
	root := category(func(n *core.Node) {
		n.Put("Fish", "", category(func(inner *core.Node) {
			inner.Put("Fish", "", leaf("salmon", "trout"))
		}))
	})

	shaped := NewShaper().Shape(root, DefaultConfig())

	require.Len(t, shaped.Children, 1)
	fish, ok := shaped.Find("fish")
	require.True(t, ok)
	assert.Equal(t, "Fish", fish.Label)
	require.True(t, fish.Node.IsLeaf())
	assert.Equal(t, []string{"salmon", "trout"}, fish.Node.Terms)
}

func TestShape_CasingNormalization(t *testing.T) {
	// {"FOOD": {"fruit": ["Apple", "BANANA"]}} -> {"Food": {"Fruit": ["apple", "banana"]}}
	root := category(func(n *core.Node) {
		n.Put("FOOD", "", category(func(inner *core.Node) {
			inner.Put("fruit", "", leaf("Apple", "BANANA"))
		}))
	})

	shaped := NewShaper().Shape(root, Config{NormalizeCasing: true})

	food, ok := shaped.Find("food")
	require.True(t, ok)
	assert.Equal(t, "Food", food.Label)
	fruit, ok := food.Node.Find("fruit")
	require.True(t, ok)
	assert.Equal(t, "Fruit", fruit.Label)
	assert.Equal(t, []string{"apple", "banana"}, fruit.Node.Terms)
}

func TestMergeOrphans_AllSmallSiblings(t *testing.T) {
	// Ten leaf sets of 2 items each, min size 5: one bucket with all 20.
	root := category(func(n *core.Node) {
		for i := 0; i < 10; i++ {
			n.Put(fmt.Sprintf("Pair %d", i), "", leaf(fmt.Sprintf("term%da", i), fmt.Sprintf("term%db", i)))
		}
	})

	merged := NewShaper().MergeOrphans(root, 5)

	require.Len(t, merged.Children, 1)
	bucket := merged.Children[0]
	require.True(t, bucket.Node.IsLeaf())
	assert.Len(t, bucket.Node.Terms, 20)
	assert.Contains(t, bucket.Label, "Other")
}

func TestMergeOrphans_MixedSiblings(t *testing.T) {
	root := category(func(n *core.Node) {
		n.Put("Spices", "", leaf("cumin seed", "fennel seed", "caraway seed", "coriander seed", "mustard seed"))
		n.Put("Tiny", "", leaf("saffron thread", "vanilla pod"))
		n.Put("Nested", "", category(func(inner *core.Node) {
			inner.Put("Deep", "", leaf("x"))
		}))
	})

	merged := NewShaper().MergeOrphans(root, 3)

	_, ok := merged.Find("tiny")
	assert.False(t, ok, "undersized leaf set folds into the bucket")
	spices, ok := merged.Find("spices")
	require.True(t, ok)
	assert.Len(t, spices.Node.Terms, 5)
	nested, ok := merged.Find("nested")
	require.True(t, ok)
	assert.True(t, nested.Node.IsCategory(), "categories are never merged")

	var bucket *core.Child
	for i := range merged.Children {
		if merged.Children[i].Label != "Spices" && merged.Children[i].Label != "Nested" {
			bucket = &merged.Children[i]
		}
	}
	require.NotNil(t, bucket)
	assert.ElementsMatch(t, []string{"saffron thread", "vanilla pod"}, bucket.Node.Terms)
}

func TestMergeOrphans_SoleChildStands(t *testing.T) {
	root := category(func(n *core.Node) {
		n.Put("Fish", "", leaf("salmon", "trout"))
	})

	merged := NewShaper().MergeOrphans(root, 5)

	fish, ok := merged.Find("fish")
	require.True(t, ok)
	assert.Equal(t, []string{"salmon", "trout"}, fish.Node.Terms)
}

func TestShape_SmallTautologyStillCollapses(t *testing.T) {
	// An undersized tautological leaf must reach the pruning pass under
	// its own name; a bucket rename in the orphan pass would strand it.
	root := category(func(n *core.Node) {
		n.Put("Fish", "", category(func(inner *core.Node) {
			inner.Put("Fish", "", leaf("salmon", "trout"))
		}))
		n.Put("Fruit", "", leaf("apple", "banana", "cherry"))
	})

	shaped := NewShaper().Shape(root, DefaultConfig())

	fish, ok := shaped.Find("fish")
	require.True(t, ok)
	require.True(t, fish.Node.IsLeaf())
	assert.Equal(t, []string{"salmon", "trout"}, fish.Node.Terms)
}

func TestMergeOrphans_ExistingBucketUntouched(t *testing.T) {
	root := category(func(n *core.Node) {
		n.Put("Big", "", leaf("a", "b", "c", "d", "e"))
		n.Put("Other (Seed)", "", leaf("x", "y"))
	})

	merged := NewShaper().MergeOrphans(root, 3)

	other, ok := merged.Find("other (seed)")
	require.True(t, ok, "previously synthesized buckets stay put")
	assert.Equal(t, []string{"x", "y"}, other.Node.Terms)
}

func TestPruneTautologies_ShadowingSiblingRenamed(t *testing.T) {
	// Fish -> Fish -> {Fish: [...], Shellfish: [...]}: the middle layer
	// collapses and the surviving same-named sibling is renamed.
	root := category(func(n *core.Node) {
		n.Put("Fish", "", category(func(mid *core.Node) {
			mid.Put("Fish", "", category(func(inner *core.Node) {
				inner.Put("Fish", "", leaf("salmon"))
				inner.Put("Shellfish", "", leaf("oyster"))
			}))
		}))
	})

	pruned := NewShaper().PruneTautologies(root)

	fish, ok := pruned.Find("fish")
	require.True(t, ok)
	require.True(t, fish.Node.IsCategory())
	_, ok = fish.Node.Find("fish")
	assert.False(t, ok)
	general, ok := fish.Node.Find("general fish")
	require.True(t, ok)
	assert.Equal(t, []string{"salmon"}, general.Node.Terms)
	_, ok = fish.Node.Find("shellfish")
	assert.True(t, ok)
}

func TestFlattenSingles_ChainCollapsesToTopLabel(t *testing.T) {
	// A -> B -> C -> [items] with A not a sole root: A -> [items].
	root := category(func(n *core.Node) {
		n.Put("A", "", chain("B", "C", leaf("item one", "item two")))
		n.Put("Sibling", "", leaf("s1", "s2", "s3"))
	})

	flat := NewShaper().FlattenSingles(root, true)

	a, ok := flat.Find("a")
	require.True(t, ok)
	require.True(t, a.Node.IsLeaf())
	assert.Equal(t, []string{"item one", "item two"}, a.Node.Terms)
}

func TestFlattenSingles_SoleRootSpineProtected(t *testing.T) {
	// The same chain as the only top-level key keeps its full nesting.
	root := category(func(n *core.Node) {
		n.Put("A", "", chain("B", "C", leaf("item one", "item two")))
	})

	flat := NewShaper().FlattenSingles(root, true)

	a, ok := flat.Find("a")
	require.True(t, ok)
	b, ok := a.Node.Find("b")
	require.True(t, ok)
	c, ok := b.Node.Find("c")
	require.True(t, ok)
	assert.True(t, c.Node.IsLeaf())
}

func TestFlattenSingles_WithoutRootProtection(t *testing.T) {
	root := category(func(n *core.Node) {
		n.Put("A", "", chain("B", "C", leaf("item one", "item two")))
	})

	flat := NewShaper().FlattenSingles(root, false)

	a, ok := flat.Find("a")
	require.True(t, ok)
	assert.True(t, a.Node.IsLeaf())
}

// chain nests labels around a terminal node: chain("B","C",leaf) = B -> C -> leaf.
func chain(labels ...interface{}) *core.Node {
	terminal := labels[len(labels)-1].(*core.Node)
	node := terminal
	for i := len(labels) - 2; i >= 0; i-- {
		wrapper := core.NewCategory()
		wrapper.Put(labels[i].(string), "", node)
		node = wrapper
	}
	return node
}

func TestNormalizeCasing_CollisionMerge(t *testing.T) {
	// Build the colliding siblings directly; Put would merge them up front.
	root := core.NewCategory()
	root.Children = append(root.Children,
		core.Child{Label: "FRUIT", Node: leaf("Apple")},
		core.Child{Label: "fruit", Node: leaf("BANANA")},
	)

	normalized := NewShaper().NormalizeCasing(root)

	require.Len(t, normalized.Children, 1)
	fruit, ok := normalized.Find("fruit")
	require.True(t, ok)
	assert.Equal(t, "Fruit", fruit.Label)
	assert.Equal(t, []string{"apple", "banana"}, fruit.Node.Terms)
}

func TestShape_Idempotent(t *testing.T) {
	root := category(func(n *core.Node) {
		n.Put("FOOD", "a gloss", category(func(food *core.Node) {
			food.Put("food", "", category(func(inner *core.Node) {
				inner.Put("fish", "", leaf("Salmon", "trout", "herring"))
				inner.Put("tiny", "", leaf("caviar"))
			}))
		}))
		n.Put("Vehicles", "", leaf("car", "truck", "bus"))
	})

	s := NewShaper()
	cfg := DefaultConfig()

	once := s.Shape(root, cfg)
	twice := s.Shape(once, cfg)
	assert.Equal(t, once, twice)
}

func TestShape_AnnotationPreserved(t *testing.T) {
	root := category(func(n *core.Node) {
		n.Put("Fish", "aquatic vertebrates", category(func(inner *core.Node) {
			inner.Put("fish", "flesh of fish", leaf("salmon", "trout", "herring"))
		}))
		n.Put("Fruit", "sweet plant products", leaf("apple", "banana", "cherry"))
	})

	shaped := NewShaper().Shape(root, DefaultConfig())

	fish, ok := shaped.Find("fish")
	require.True(t, ok)
	assert.Equal(t, "aquatic vertebrates", fish.Annotation,
		"parent annotation survives tautology collapse")
	fruit, ok := shaped.Find("fruit")
	require.True(t, ok)
	assert.Equal(t, "sweet plant products", fruit.Annotation)
}

func TestShape_AnnotationInheritedFromCollapsedChild(t *testing.T) {
	root := category(func(n *core.Node) {
		n.Put("Fish", "", category(func(inner *core.Node) {
			inner.Put("fish", "flesh of fish", leaf("salmon", "trout", "herring"))
		}))
		n.Put("Fruit", "", leaf("apple", "banana", "cherry"))
	})

	shaped := NewShaper().Shape(root, DefaultConfig())

	fish, ok := shaped.Find("fish")
	require.True(t, ok)
	assert.Equal(t, "flesh of fish", fish.Annotation,
		"empty parent annotation takes the collapsed child's")
}

func TestShape_InputTreeUnmodified(t *testing.T) {
	root := category(func(n *core.Node) {
		n.Put("FOOD", "", category(func(inner *core.Node) {
			inner.Put("food", "", leaf("Apple", "BANANA"))
		}))
	})

	NewShaper().Shape(root, DefaultConfig())

	food, ok := root.Find("FOOD")
	require.True(t, ok)
	assert.Equal(t, "FOOD", food.Label, "caller's tree stays intact")
	inner, ok := food.Node.Find("food")
	require.True(t, ok)
	assert.Equal(t, []string{"Apple", "BANANA"}, inner.Node.Terms)
}

func TestShape_CustomLabeler(t *testing.T) {
	root := category(func(n *core.Node) {
		n.Put("Big", "", leaf("a", "b", "c", "d", "e"))
		n.Put("Small", "", leaf("x", "y"))
	})

	s := NewShaper(WithLabeler(func(orphans, context []string) string {
		return "Misc"
	}))
	merged := s.MergeOrphans(root, 3)

	misc, ok := merged.Find("misc")
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, misc.Node.Terms)
}
