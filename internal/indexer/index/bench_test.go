package index

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
)

const benchText = "search engine with distributed indexing and query processing over a sharded aggregator"

// BenchmarkAddDocument measures per-document insert throughput.
func BenchmarkAddDocument(b *testing.B) {
	ix, err := NewFromText("and with a over", WithLogger(logger.Discard()))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := ix.AddDocument(i, benchText, StatusActual, []int{1, 2, 3}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRemoveDocument measures removal of long documents under each
// policy.
func BenchmarkRemoveDocument(b *testing.B) {
	var text string
	for w := 0; w < 500; w++ {
		text += fmt.Sprintf("term%d ", w)
	}
	for _, policy := range []Policy{Sequential, Parallel} {
		b.Run(policy.String(), func(b *testing.B) {
			ix, err := New(nil, WithLogger(logger.Discard()))
			if err != nil {
				b.Fatal(err)
			}
			for i := 0; i < b.N; i++ {
				if err := ix.AddDocument(i, text, StatusActual, nil); err != nil {
					b.Fatal(err)
				}
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ix.RemoveDocument(policy, i)
			}
		})
	}
}
