package tokenizer

import (
	"strings"
	"testing"
)

var sampleTexts = map[string]string{
	"short":  "the quick brown fox jumps over the lazy dog",
	"spaced": "   distributed    search   engines  process   queries  across shards   ",
	"long":   strings.Repeat("information retrieval systems form the backbone of modern search infrastructure ", 50),
}

func BenchmarkSplit(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = Split(text)
			}
		})
	}
}
