package vocabulary

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/store"
)

func benchDocs(n int) []string {
	docs := make([]string, n)
	for i := range docs {
		var b strings.Builder
		for j := 0; j < 40; j++ {
			fmt.Fprintf(&b, "word%d ", (i*7+j*13)%5000)
		}
		docs[i] = b.String()
	}
	return docs
}

func BenchmarkCountUpdate(b *testing.B) {
	ctx := context.Background()
	docs := benchDocs(1000)
	a, err := NewCountAccumulator(ctx, store.NewMemory(), tok, Options{})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.Update(ctx, docs[i%len(docs)]); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWeightUpdate(b *testing.B) {
	ctx := context.Background()
	docs := benchDocs(1000)
	a, err := NewWeightAccumulator(ctx, store.NewMemory(), tok, Options{})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.Update(ctx, docs[i%len(docs)]); err != nil {
			b.Fatal(err)
		}
	}
}
