// Package worker implements mining and transaction production for the
// blockchain.
package worker

import (
	"context"
	"sync"

	"github.com/ardanlabs/minichain/foundation/blockchain/state"
	"github.com/ardanlabs/minichain/foundation/blockchain/wallet"
)

// Config represents the settings for the background operations.
type Config struct {
	Producers int
	Accounts  []wallet.Account
}

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state     *state.State
	cfg       Config
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	fatal     chan error
	evHandler state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, cfg Config, evHandler state.EventHandler) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	w := Worker{
		state:     st,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		fatal:     make(chan error, 1),
		evHandler: evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.miningOperations,
	}
	for i := range cfg.Producers {
		operations = append(operations, func() { w.producerOperations(i) })
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

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: cancel operations")
	w.cancel()

	w.evHandler("worker: shutdown: terminate goroutines")
	w.wg.Wait()
}

// =============================================================================

// Fatal returns a channel that receives the error that stopped mining. The
// process is expected to exit when a value arrives.
func (w *Worker) Fatal() <-chan error {
	return w.fatal
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	return w.ctx.Err() != nil
}
