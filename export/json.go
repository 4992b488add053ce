package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/poiesic/skelgen/core"
)

// WriteJSON serializes a taxonomy to w as nested objects and term arrays.
// JSON has no comment channel, so annotations are dropped; use WriteYAML
// when they must survive.
func WriteJSON(w io.Writer, root *core.Node) error {
	data, err := MarshalJSON(root)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// MarshalJSON renders the taxonomy as indented JSON bytes, preserving
// child order.
func MarshalJSON(root *core.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSONNode(&buf, root, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSONNode(buf *bytes.Buffer, node *core.Node, depth int) error {
	switch {
	case node == nil:
		buf.WriteString("null")
		return nil
	case node.IsLeaf():
		data, err := json.Marshal(node.Terms)
		if err != nil {
			return err
		}
		buf.Write(data)
		return nil
	case node.IsCategory():
		if len(node.Children) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		for i, child := range node.Children {
			writeIndent(buf, depth+1)
			key, err := json.Marshal(child.Label)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteString(": ")
			if err := writeJSONNode(buf, child.Node, depth+1); err != nil {
				return err
			}
			if i < len(node.Children)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("%w: kind %d", ErrUnsupportedNode, node.Kind)
	}
}

func writeIndent(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
}
