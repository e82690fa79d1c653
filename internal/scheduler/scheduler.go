package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task right away, then again interval after each run finishes,
// until ctx is done. Runs never overlap. Errors and panics are logged, not returned.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	t := time.NewTimer(0)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if ctx.Err() != nil {
			return
		}

		if err := runSafe(ctx, task); err != nil {
			log.Printf("[%s] error: %v", name, err)
		}

		if ctx.Err() != nil {
			return
		}
		t.Reset(interval)
	}
}

func runSafe(ctx context.Context, task Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return task(ctx)
}
