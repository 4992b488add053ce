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
	"bufio"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// NodeID identifies one vertex of a Source graph. IDs are opaque to the
// builder; only the Source can resolve them.
type NodeID string

// Source is a parent/child graph the GraphBuilder walks. Implementations
// must return stable, deterministic orderings from Roots and Children.
type Source interface {
	// Roots returns the ids of the top-level nodes.
	Roots() []NodeID
	// Children returns the ordered child ids of a node. A node with no
	// children is a leaf.
	Children(id NodeID) []NodeID
	// Name returns the display name of a node.
	Name(id NodeID) string
}

type edgeNode struct {
	name   string
	parent int
}

// EdgeListSource is a Source backed by a tab-separated edge list with one
// node per line: index, external id, parent index, name. A parent index of
// -1 marks a root. Multi-part names keep only the first comma-separated
// segment. Roots and children are ordered case-insensitively by name.
type EdgeListSource struct {
	nodes    map[int]edgeNode
	children map[int][]int
	roots    []int
}

// OpenEdgeList parses the edge list at path.
func OpenEdgeList(path string) (*EdgeListSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseEdgeList(f)
}

// ParseEdgeList reads an edge list from r. The first line is a header and
// is skipped; malformed lines are ignored. An edge list with no valid rows
// yields ErrEmptySource.
func ParseEdgeList(r io.Reader) (*EdgeListSource, error) {
	src := &EdgeListSource{
		nodes:    make(map[int]edgeNode),
		children: make(map[int][]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}
		parent, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			continue
		}
		name := strings.TrimSpace(strings.SplitN(fields[3], ",", 2)[0])
		if name == "" {
			continue
		}
		src.nodes[idx] = edgeNode{name: name, parent: parent}
		src.children[parent] = append(src.children[parent], idx)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(src.nodes) == 0 {
		return nil, ErrEmptySource
	}

	for parent := range src.children {
		src.sortByName(src.children[parent])
	}
	src.roots = src.children[-1]
	return src, nil
}

func (s *EdgeListSource) sortByName(ids []int) {
	sort.SliceStable(ids, func(i, j int) bool {
		a := strings.ToLower(s.nodes[ids[i]].name)
		b := strings.ToLower(s.nodes[ids[j]].name)
		if a == b {
			return ids[i] < ids[j]
		}
		return a < b
	})
}

// Len returns the number of parsed nodes.
func (s *EdgeListSource) Len() int {
	return len(s.nodes)
}

// Roots implements Source.
func (s *EdgeListSource) Roots() []NodeID {
	return toNodeIDs(s.roots)
}

// Children implements Source.
func (s *EdgeListSource) Children(id NodeID) []NodeID {
	idx, err := strconv.Atoi(string(id))
	if err != nil {
		return nil
	}
	return toNodeIDs(s.children[idx])
}

// Name implements Source.
func (s *EdgeListSource) Name(id NodeID) string {
	idx, err := strconv.Atoi(string(id))
	if err != nil {
		return ""
	}
	return s.nodes[idx].name
}

func toNodeIDs(ids []int) []NodeID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]NodeID, len(ids))
	for i, id := range ids {
		out[i] = NodeID(strconv.Itoa(id))
	}
	return out
}
