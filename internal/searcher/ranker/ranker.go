package ranker

import (
	"cmp"
	"math"
	"slices"
)

const (
	// MaxResults is how many documents a top-documents query returns.
	MaxResults = 5
	// RelevanceEpsilon is the relevance difference below which two documents
	// are ordered by rating instead.
	RelevanceEpsilon = 1e-6
)

// Document is the projection returned by queries.
type Document struct {
	ID        int     `json:"id"`
	Relevance float64 `json:"relevance"`
	Rating    int     `json:"rating"`
}

// IDF is ln(total/containing). It is 0 when either count is 0.
func IDF(total, containing int) float64 {
	if total <= 0 || containing <= 0 {
		return 0
	}
	return math.Log(float64(total) / float64(containing))
}

func compare(a, b Document) int {
	if math.Abs(a.Relevance-b.Relevance) < RelevanceEpsilon {
		return cmp.Compare(b.Rating, a.Rating)
	}
	return cmp.Compare(b.Relevance, a.Relevance)
}

// Sort orders docs by relevance descending, then rating descending. The sort
// is stable, so documents passed in ascending id order keep that order on
// full ties. Relevances within RelevanceEpsilon compare as equal, which is
// not transitive: in a chain of near-equal relevances spanning more than
// RelevanceEpsilon the relative order of its members is unspecified.
func Sort(docs []Document) {
	slices.SortStableFunc(docs, compare)
}

// Top sorts docs and truncates them to limit. A limit below one means no
// truncation.
func Top(docs []Document, limit int) []Document {
	Sort(docs)
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs
}
