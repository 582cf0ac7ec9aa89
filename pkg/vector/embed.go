// Package vector backs the semantic tier with an embedded chromem-go
// index. Embeddings are hashed bag-of-words vectors: no model download,
// no network, deterministic across processes.
package vector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	chromem "github.com/philippgille/chromem-go"
)

// DefaultDims is the embedding dimensionality. Fixed up front because
// every document in a chromem collection must share one vector space;
// hashing tokens into a fixed number of buckets keeps the space stable
// without maintaining a vocabulary.
const DefaultDims = 256

// NewHashEmbedding returns an embedding func that hashes each token
// into one of dims buckets and L2-normalizes the bucket counts. Token
// collisions are acceptable noise at this dimensionality.
func NewHashEmbedding(dims int) chromem.EmbeddingFunc {
	if dims <= 0 {
		dims = DefaultDims
	}
	return func(_ context.Context, text string) ([]float32, error) {
		tokens := tokenize(text)
		if len(tokens) == 0 {
			return nil, fmt.Errorf("cannot embed empty text")
		}
		vec := make([]float32, dims)
		for _, tok := range tokens {
			h := fnv.New32a()
			h.Write([]byte(tok))
			vec[h.Sum32()%uint32(dims)]++
		}
		normalize32(vec)
		return vec, nil
	}
}

// tokenize splits text into lowercase alphanumeric tokens.
func tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalize32 normalizes a float32 vector to unit length in place.
func normalize32(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
