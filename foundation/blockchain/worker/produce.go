package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/mempool/selector"
	"github.com/ardanlabs/msgpool/foundation/blockchain/state"
	"github.com/cenkalti/backoff/v4"
)

// maxProduceRetries is the number of times a selection that failed to read
// the chain state is retried.
const maxProduceRetries = 3

// produceOperations handles block production on every tick or signal.
func (w *Worker) produceOperations() {
	w.evHandler("worker: produceOperations: G started")
	defer w.evHandler("worker: produceOperations: G completed")

	for {
		select {
		case <-w.startProducing:
			if !w.isShutdown() {
				w.runProduceOperation()
			}
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runProduceOperation()
			}
		case <-w.shut:
			w.evHandler("worker: produceOperations: received shut signal")
			return
		}
	}
}

// runProduceOperation selects the messages from the mempool and applies
// a new block to the chain.
func (w *Worker) runProduceOperation() {
	w.evHandler("worker: runProduceOperation: PRODUCE: started")
	defer w.evHandler("worker: runProduceOperation: PRODUCE: completed")

	// Make sure there are messages in the mempool.
	length := w.state.QueryMempoolLength()
	if length == 0 {
		w.evHandler("worker: runProduceOperation: PRODUCE: no messages to select: msgs[%d]", length)
		return
	}

	// If production is signalled to be cancelled, this G can't terminate
	// until it is told it can.
	var wait chan struct{}
	defer func() {
		if wait != nil {
			w.evHandler("worker: runProduceOperation: PRODUCE: termination signal: waiting")
			<-wait
			w.evHandler("worker: runProduceOperation: PRODUCE: termination signal: received")
		}
	}()

	// Drain the cancel producing channel before starting.
	select {
	case <-w.cancelProducing:
		w.evHandler("worker: runProduceOperation: PRODUCE: drained cancel channel")
	default:
	}

	// Create a context so production can be cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(2)

	// This G exists to cancel the production operation.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case wait = <-w.cancelProducing:
			w.evHandler("worker: runProduceOperation: PRODUCE: CANCEL: requested")
		case <-ctx.Done():
		}
	}()

	// This G is performing the production.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		t := time.Now()
		block, err := w.produce(ctx)
		duration := time.Since(t)

		w.evHandler("worker: runProduceOperation: PRODUCE: production duration[%v]", duration)

		if err != nil {
			switch {
			case errors.Is(err, state.ErrNoMessages):
				w.evHandler("worker: runProduceOperation: PRODUCE: WARNING: no messages selected")
			case ctx.Err() != nil:
				w.evHandler("worker: runProduceOperation: PRODUCE: CANCEL: complete")
			default:
				w.evHandler("worker: runProduceOperation: PRODUCE: ERROR: %s", err)
			}
			return
		}

		w.evHandler("worker: runProduceOperation: PRODUCE: blk[%d]: msgs[%d]", block.Header.Height, len(block.Values()))
	}()

	// Wait for both G's to terminate.
	wg.Wait()
}

// produce asks the state to produce a block. Failures reading the chain
// state are retried with an exponential backoff, anything else is final.
func (w *Worker) produce(ctx context.Context) (database.Block, error) {
	op := func() (database.Block, error) {
		block, err := w.state.ProduceBlock(ctx)
		if err != nil && !errors.Is(err, selector.ErrProvider) {
			return database.Block{}, backoff.Permanent(err)
		}
		return block, err
	}

	notify := func(err error, d time.Duration) {
		w.evHandler("worker: runProduceOperation: PRODUCE: retry in %v: %s", d, err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxProduceRetries), ctx)

	return backoff.RetryNotifyWithData(op, b, notify)
}
