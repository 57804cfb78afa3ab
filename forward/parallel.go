package forward

import (
	"runtime"
	"sync"
)

// parallelEach runs fn(i) for i in [0,n) across goroutines chunked by
// GOMAXPROCS, blocking until all complete. Work items must be
// independent except through the caller's own atomics/concurrent
// structures (spec.md §5).
func parallelEach(n int32, fn func(i int32)) {
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if int32(workers) > n {
		workers = int(n)
	}
	if workers <= 1 {
		for i := int32(0); i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + int32(workers) - 1) / int32(workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		begin := int32(w) * chunk
		end := begin + chunk
		if begin >= n {
			break
		}
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(begin, end int32) {
			defer wg.Done()
			for i := begin; i < end; i++ {
				fn(i)
			}
		}(begin, end)
	}
	wg.Wait()
}
