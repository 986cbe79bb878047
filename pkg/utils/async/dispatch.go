package async

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/utils/errutil"
	"github.com/secmon-lab/studyhall/pkg/utils/logging"
)

// DefaultTimeout bounds every dispatched handler
const DefaultTimeout = 30 * time.Second

var inflight sync.WaitGroup

// Dispatch runs handler in a new goroutine detached from the request context.
// The logger of ctx is carried over. Errors and panics are logged and reported,
// never returned.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.Background(), logging.From(ctx))

	inflight.Add(1)
	go func() {
		defer inflight.Done()

		ctx, cancel := context.WithTimeout(bgCtx, DefaultTimeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				errutil.Handle(ctx, goerr.New("panic in async handler", goerr.V("panic", fmt.Sprint(r))), "async handler panicked")
			}
		}()

		if err := handler(ctx); err != nil {
			errutil.Handle(ctx, err, "async handler failed")
		}
	}()
}

// Wait blocks until all dispatched handlers finish or ctx is done
func Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "async handlers still running")
	}
}
