package worker

import (
	"crypto/rand"
	"errors"
	mrand "math/rand/v2"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/mempool"
	"github.com/ardanlabs/minichain/foundation/blockchain/state"
	"github.com/ardanlabs/minichain/foundation/blockchain/wallet"
)

// producerPause is how long a producer waits before trying again when no
// account can pay.
const producerPause = 100 * time.Millisecond

// producerOperations keeps submitting random transfers between the known
// accounts. The producer blocks while the mempool is full.
func (w *Worker) producerOperations(id int) {
	w.evHandler("worker: producerOperations: G[%d] started", id)
	defer w.evHandler("worker: producerOperations: G[%d] completed", id)

	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		w.evHandler("worker: producerOperations: G[%d]: ERROR: %s", id, err)
		return
	}
	rng := mrand.New(mrand.NewChaCha8(seed))

	for !w.isShutdown() {
		tx, err := wallet.RandomTransfer(rng, w.cfg.Accounts, w.state.QuerySpendableUTXOs, time.Now())
		if err != nil {
			if !errors.Is(err, wallet.ErrInsufficientFunds) {
				w.evHandler("worker: producerOperations: G[%d]: ERROR: %s", id, err)
				return
			}

			select {
			case <-time.After(producerPause):
			case <-w.ctx.Done():
			}
			continue
		}

		if err := w.state.SubmitTransaction(w.ctx, tx); err != nil {
			if w.isShutdown() || errors.Is(err, mempool.ErrClosed) {
				return
			}
			if errors.Is(err, state.ErrDoubleSpend) {
				continue
			}
			w.evHandler("worker: producerOperations: G[%d]: ERROR: %s", id, err)
		}
	}
}
