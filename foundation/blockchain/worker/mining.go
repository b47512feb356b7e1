package worker

import (
	"errors"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/mempool"
	"github.com/ardanlabs/minichain/foundation/blockchain/state"
)

// miningOperations runs the mining state machine until shutdown. Each pass
// waits for a full batch, then validates, assembles, mines and seals it.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for !w.isShutdown() {
		if !w.runMiningOperation() {
			return
		}
	}
}

// runMiningOperation mines a single block. It returns false when mining
// must stop.
func (w *Worker) runMiningOperation() bool {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	t := time.Now()
	block, err := w.state.MineNewBlock(w.ctx)
	duration := time.Since(t)

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

	if err != nil {
		switch {
		case errors.Is(err, state.ErrForgedTransaction):
			w.evHandler("worker: runMiningOperation: MINING: HALT: %s", err)
			w.fatal <- err
			return false

		case w.isShutdown(), errors.Is(err, mempool.ErrClosed):
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
			return false

		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
			return true
		}
	}

	w.evHandler("worker: runMiningOperation: MINING: SEALED: block[%s]: trans[%d]", block.Hash(), len(block.Body.Trans))

	return true
}
