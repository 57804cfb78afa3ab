package orderedfloat

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderPreserved(t *testing.T) {
	vals := []float32{float32(math.Inf(-1)), -100, -1, -0.0001, 0, 0.0001, 1, 100, float32(math.Inf(1))}
	for i := 1; i < len(vals); i++ {
		require.Less(t, ToOrdered(vals[i-1]), ToOrdered(vals[i]), "vals[%d]=%v vs vals[%d]=%v", i-1, vals[i-1], i, vals[i])
	}
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []float32{0, 1, -1, 3.5, -3.5, float32(math.Inf(-1)), float32(math.Inf(1))} {
		require.Equal(t, f, FromOrdered(ToOrdered(f)))
	}
}

func TestAtomicMaxConcurrent(t *testing.T) {
	var dst atomic.Int64
	dst.Store(NegInf)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(v float32) {
			defer wg.Done()
			AtomicMax(&dst, ToOrdered(v))
		}(float32(i))
	}
	wg.Wait()
	require.Equal(t, float32(99), FromOrdered(dst.Load()))
}
