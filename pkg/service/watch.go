package service

import (
	"context"
	"errors"
	"sync"
	"time"
)

type tokenResult struct {
	token uint64
	comp  Computation
	err   error
}

// Watch recomputes every interval until ctx is done, calling onResult with each
// result that was not overtaken by a newer run. Runs may overlap when a
// computation takes longer than the interval.
func (e *Engine) Watch(ctx context.Context, interval time.Duration, onResult func(Computation)) error {
	if interval <= 0 {
		return errors.New("watch interval must be positive")
	}

	var (
		tracker Tracker
		wg      sync.WaitGroup
	)
	results := make(chan tokenResult)

	run := func() {
		token := tracker.Next()
		wg.Add(1)
		go func() {
			defer wg.Done()
			comp, err := e.Compute(ctx)
			select {
			case results <- tokenResult{token: token, comp: comp, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	run()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case <-ticker.C:
			run()
		case r := <-results:
			if r.err != nil {
				if !errors.Is(r.err, context.Canceled) {
					e.log.Error().Err(r.err).Uint64("token", r.token).Msg("watch computation failed")
				}
				continue
			}
			if !tracker.Accept(r.token) {
				e.log.Debug().Uint64("token", r.token).Msg("stale result discarded")
				continue
			}
			onResult(r.comp)
		}
	}
}
