// Package worker implements block production for the node.
package worker

import (
	"sync"
	"time"

	"github.com/ardanlabs/msgpool/foundation/blockchain/state"
)

// defaultBlockDelay is used when the genesis doesn't set a block delay.
const defaultBlockDelay = 15 * time.Second

// =============================================================================

// Worker manages the block production workflow for the node.
type Worker struct {
	state           *state.State
	wg              sync.WaitGroup
	ticker          *time.Ticker
	shut            chan struct{}
	startProducing  chan bool
	cancelProducing chan chan struct{}
	evHandler       state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) *Worker {
	delay := time.Duration(st.Genesis().BlockDelay) * time.Second
	if delay <= 0 {
		delay = defaultBlockDelay
	}

	w := Worker{
		state:           st,
		ticker:          time.NewTicker(delay),
		shut:            make(chan struct{}),
		startProducing:  make(chan bool, 1),
		cancelProducing: make(chan chan struct{}, 1),
		evHandler:       evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.produceOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for range g {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: signal cancel producing")
	done := w.SignalCancelProducing()
	done()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartProducing starts a production operation. If there is already
// a signal pending in the channel, just return since an operation will start.
func (w *Worker) SignalStartProducing() {
	select {
	case w.startProducing <- true:
	default:
	}
	w.evHandler("worker: SignalStartProducing: production signaled")
}

// SignalCancelProducing signals the G executing the runProduceOperation
// function to stop immediately. That G will not return from the function
// until done is called. This allows the caller to complete any state changes
// before a new production operation takes place.
func (w *Worker) SignalCancelProducing() (done func()) {
	wait := make(chan struct{})

	select {
	case w.cancelProducing <- wait:
	default:
	}
	w.evHandler("worker: SignalCancelProducing: PRODUCE: CANCEL: signaled")

	var once sync.Once
	return func() { once.Do(func() { close(wait) }) }
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
