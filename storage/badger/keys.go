package badger

import (
	"fmt"

	"github.com/poiesic/skelgen/core"
)

// Key prefixes for the two cache families
const (
	embeddingPrefix = "embvec"
	reductionPrefix = "redmat"
)

// makeEmbeddingKey generates a key for an embedding cache entry.
// Format: prefix:contentID where the ID hashes (modelID, normalized term).
func makeEmbeddingKey(term, modelID string) []byte {
	id := core.IDFromContent(modelID + "|" + core.NormalizeTerm(term))
	return []byte(fmt.Sprintf("%s:%d", embeddingPrefix, id))
}

// makeReductionKey generates a key for a reduction cache entry.
func makeReductionKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", reductionPrefix, id))
}
