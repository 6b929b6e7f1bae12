package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const pruneTimeout = 30 * time.Second

// janitor deletes expired rows on an interval until stopped.
type janitor struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// runJanitor prunes once immediately, then every interval.
func runJanitor(driver string, interval time.Duration, prune func(context.Context) (int64, error)) *janitor {
	ctx, cancel := context.WithCancel(context.Background())
	j := &janitor{cancel: cancel, done: make(chan struct{})}

	sweep := func() {
		pctx, cancel := context.WithTimeout(ctx, pruneTimeout)
		defer cancel()
		n, err := prune(pctx)
		if err != nil {
			if ctx.Err() == nil {
				zap.L().Warn("cache: prune expired entries", zap.String("driver", driver), zap.Error(err))
			}
			return
		}
		if n > 0 {
			zap.L().Debug("cache: pruned expired entries", zap.String("driver", driver), zap.Int64("rows", n))
		}
	}

	go func() {
		defer close(j.done)
		sweep()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()
	return j
}

// stop cancels the loop and waits for an in-progress sweep. Nil-safe.
func (j *janitor) stop() {
	if j == nil {
		return
	}
	j.once.Do(func() {
		j.cancel()
		<-j.done
	})
}
