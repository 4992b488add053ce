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
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/skelgen/core"
)

const instructionPrefix = "instruction:"

// WriteYAML serializes a taxonomy to w as a nested mapping. Category
// annotations travel as "# instruction:" line comments on their keys, so
// a reader can recover every label's annotation without touching the
// value payload.
func WriteYAML(w io.Writer, root *core.Node) error {
	doc, err := encodeNode(root)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding taxonomy: %w", err)
	}
	return enc.Close()
}

// MarshalYAML renders the taxonomy as YAML bytes.
func MarshalYAML(root *core.Node) ([]byte, error) {
	var sb strings.Builder
	if err := WriteYAML(&sb, root); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

func encodeNode(node *core.Node) (*yaml.Node, error) {
	switch {
	case node == nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case node.IsLeaf():
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, term := range node.Terms {
			seq.Content = append(seq.Content, &yaml.Node{
				Kind: yaml.ScalarNode, Value: term,
			})
		}
		return seq, nil
	case node.IsCategory():
		mapping := &yaml.Node{Kind: yaml.MappingNode}
		for _, child := range node.Children {
			key := &yaml.Node{Kind: yaml.ScalarNode, Value: child.Label}
			if child.Annotation != "" {
				key.LineComment = fmt.Sprintf("# %s %s", instructionPrefix, child.Annotation)
			}
			value, err := encodeNode(child.Node)
			if err != nil {
				return nil, err
			}
			mapping.Content = append(mapping.Content, key, value)
		}
		return mapping, nil
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnsupportedNode, node.Kind)
	}
}

// ReadYAML parses a taxonomy document written by WriteYAML, recovering
// label annotations from the key comments.
func ReadYAML(r io.Reader) (*core.Node, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("decoding taxonomy: %w", err)
	}

	content := &doc
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil, ErrEmptyDocument
		}
		content = doc.Content[0]
	}
	return decodeNode(content)
}

// UnmarshalYAML parses taxonomy YAML bytes.
func UnmarshalYAML(data []byte) (*core.Node, error) {
	return ReadYAML(strings.NewReader(string(data)))
}

func decodeNode(n *yaml.Node) (*core.Node, error) {
	switch n.Kind {
	case yaml.MappingNode:
		out := core.NewCategory()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			child, err := decodeNode(value)
			if err != nil {
				return nil, err
			}
			annotation := parseAnnotation(key.LineComment)
			if annotation == "" {
				// Scalar values keep the inline comment on the value side.
				annotation = parseAnnotation(value.LineComment)
			}
			out.Put(key.Value, annotation, child)
		}
		return out, nil
	case yaml.SequenceNode:
		terms := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: nested sequence content", ErrUnsupportedNode)
			}
			terms = append(terms, item.Value)
		}
		return core.NewLeafSet(terms...), nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" || n.Value == "" {
			return core.NewLeafSet(), nil
		}
		// A bare scalar stands for a single-term leaf.
		return core.NewLeafSet(n.Value), nil
	case yaml.AliasNode:
		return decodeNode(n.Alias)
	default:
		return nil, fmt.Errorf("%w: yaml kind %d", ErrUnsupportedNode, n.Kind)
	}
}

// parseAnnotation recovers the annotation text from a key's line comment.
// Comments that do not carry the instruction prefix are ignored.
func parseAnnotation(comment string) string {
	text := strings.TrimSpace(strings.TrimLeft(comment, "#"))
	if !strings.HasPrefix(text, instructionPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(text, instructionPrefix))
}
