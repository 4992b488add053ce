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


package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/skelgen/core"
)

func sampleTree() *core.Node {
	fish := core.NewLeafSet("herring", "salmon", "trout")
	fruit := core.NewLeafSet("apple", "banana")
	food := core.NewCategory()
	food.Put("Fish", "the flesh of fish used as food", fish)
	food.Put("Fruit", "", fruit)
	root := core.NewCategory()
	root.Put("Food", "any substance that can be eaten", food)
	return root
}

func TestMarshalYAML(t *testing.T) {
	data, err := MarshalYAML(sampleTree())
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Food: # instruction: any substance that can be eaten")
	assert.Contains(t, text, "Fish: # instruction: the flesh of fish used as food")
	assert.Contains(t, text, "- salmon")

	// Unannotated keys carry no comment.
	assert.Contains(t, text, "Fruit:\n")
	assert.NotContains(t, text, "Fruit: #")
}

func TestYAMLRoundTrip(t *testing.T) {
	tree := sampleTree()
	data, err := MarshalYAML(tree)
	require.NoError(t, err)

	got, err := UnmarshalYAML(data)
	require.NoError(t, err)
	assert.Equal(t, tree, got)
}

func TestYAMLAnnotationRecovery(t *testing.T) {
	got, err := ReadYAML(strings.NewReader(`Food: # instruction: any substance that can be eaten
  Fish: # instruction: aquatic flesh
    - salmon
  Fruit: # just a remark, not an instruction
    - apple
`))
	require.NoError(t, err)

	food, ok := got.Find("Food")
	require.True(t, ok)
	assert.Equal(t, "any substance that can be eaten", food.Annotation)

	fish, ok := food.Node.Find("Fish")
	require.True(t, ok)
	assert.Equal(t, "aquatic flesh", fish.Annotation)
	assert.Equal(t, []string{"salmon"}, fish.Node.Terms)

	fruit, ok := food.Node.Find("Fruit")
	require.True(t, ok)
	assert.Empty(t, fruit.Annotation)
}

func TestReadYAMLScalars(t *testing.T) {
	got, err := ReadYAML(strings.NewReader(`animal:
  bird: sparrow
  fish:
`))
	require.NoError(t, err)

	animal, ok := got.Find("animal")
	require.True(t, ok)

	bird, ok := animal.Node.Find("bird")
	require.True(t, ok)
	assert.Equal(t, []string{"sparrow"}, bird.Node.Terms)

	fish, ok := animal.Node.Find("fish")
	require.True(t, ok)
	require.True(t, fish.Node.IsLeaf())
	assert.Empty(t, fish.Node.Terms)
}

func TestReadYAMLEmpty(t *testing.T) {
	_, err := ReadYAML(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestWriteJSON(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteJSON(&sb, sampleTree()))
	text := sb.String()

	assert.Contains(t, text, `"Food": {`)
	assert.Contains(t, text, `"Fish": ["herring","salmon","trout"]`)
	assert.Contains(t, text, `"Fruit": ["apple","banana"]`)
	assert.NotContains(t, text, "instruction")
}
