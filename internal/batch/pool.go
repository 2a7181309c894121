package batch

import (
	"context"
	"runtime"
	"sync"
)

// forEach runs fn for 0..n-1 with at most workers calls in flight. Once ctx
// is done no further index starts; in-flight calls run to completion. The
// indices that never started are returned in order.
func forEach(ctx context.Context, n, workers int, fn func(i int)) []int {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var skipped []int
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			skipped = append(skipped, i)
			continue
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			<-sem
			skipped = append(skipped, i)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}()
	}
	wg.Wait()
	return skipped
}
