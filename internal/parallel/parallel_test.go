package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEach_VisitsEveryItem(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		items := make([]int, 100)
		for i := range items {
			items[i] = i
		}
		seen := make([]int32, len(items))
		var calls atomic.Int32

		ForEach(items, workers, func(i int, item int) {
			assert.Equal(t, i, item)
			atomic.AddInt32(&seen[i], 1)
			calls.Add(1)
		})

		assert.Equal(t, int32(100), calls.Load(), "workers=%d", workers)
		for i, n := range seen {
			assert.Equal(t, int32(1), n, "item %d workers=%d", i, workers)
		}
	}
}

func TestForEach_Empty(t *testing.T) {
	ForEach[string](nil, 4, func(int, string) {
		t.Fatal("fn must not be called")
	})
}

func TestMap_PreservesOrder(t *testing.T) {
	got, err := Map([]string{"a", "bb", "ccc"}, 2, func(s string) (int, error) {
		return len(s), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestMap_ReturnsError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Map([]int{1, 2, 3}, 2, func(n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	assert.ErrorIs(t, err, boom)
}
