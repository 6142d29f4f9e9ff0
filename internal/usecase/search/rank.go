package search

import (
	"math"
	"sort"

	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
	"github.com/kailas-cloud/kbase/internal/domain/search/result"
)

// CosineSimilarity returns dot(a,b) / (|a|*|b|). Vectors of different
// length or with zero magnitude score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// rankBySimilarity scores every document that has an embedding against query
// and keeps the topK best. Ties keep the input order.
func rankBySimilarity(query []float32, docs []domdoc.Document, topK int) []result.Result {
	results := make([]result.Result, 0, len(docs))
	for i := range docs {
		if !docs[i].HasEmbedding() {
			continue
		}
		results = append(results, result.New(docs[i], CosineSimilarity(query, docs[i].Embedding())))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
