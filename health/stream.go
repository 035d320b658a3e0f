package health

import (
	"context"
	"sync"

	"github.com/justapithecus/pharos/types"
)

// StreamChecks probes every proxy concurrently and yields each outcome as
// it completes. Completion order is arbitrary; the channel carries exactly
// one result per input and is closed once all probes finish.
//
// The engine imposes no concurrency limit of its own. Callers needing
// backpressure should batch their input. A proxy whose protocol has no
// registered prober yields an INACTIVE outcome carrying the dispatch error
// so batch sweeps never lose an input.
func (c *Checker) StreamChecks(ctx context.Context, proxies []*types.Proxy, opts types.CheckOptions) <-chan *types.CheckResult {
	// Buffered to input size so no probe goroutine blocks on a slow reader.
	results := make(chan *types.CheckResult, len(proxies))

	var wg sync.WaitGroup
	for _, proxy := range proxies {
		wg.Add(1)
		go func(proxy *types.Proxy) {
			defer wg.Done()

			result, err := c.Check(ctx, proxy, opts)
			if err != nil {
				result = &types.CheckResult{
					ProxyID:      proxy.ID,
					Protocol:     proxy.Protocol,
					Status:       types.ProxyStatusInactive,
					Attempts:     0,
					CheckedAt:    c.now(),
					ErrorMessage: err.Error(),
				}
			}
			results <- result
		}(proxy)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
