// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/minichain/business/web/errs"
	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/mempool"
	"github.com/ardanlabs/minichain/foundation/blockchain/signature"
	"github.com/ardanlabs/minichain/foundation/blockchain/spv"
	"github.com/ardanlabs/minichain/foundation/blockchain/state"
	"github.com/ardanlabs/minichain/foundation/blockchain/wallet"
	"github.com/ardanlabs/minichain/foundation/events"
	"github.com/ardanlabs/minichain/foundation/nameservice"
	"github.com/ardanlabs/minichain/foundation/validate"
	"github.com/ardanlabs/minichain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
	Light *spv.Client
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	id, ch := h.Evts.Acquire()
	defer h.Evts.Release(id)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction adds a signed wallet transaction to the mempool. The
// call waits while the mempool is full.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var dbTx database.Tx
	if err := web.Decode(r, &dbTx); err != nil {
		if validate.IsFieldErrors(err) {
			return err
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := dbTx.Validate(); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "tx", dbTx.ID(), "inputs", len(dbTx.Inputs), "outputs", len(dbTx.Outputs))

	if err := h.State.SubmitTransaction(ctx, dbTx); err != nil {
		switch {
		case errors.Is(err, state.ErrDoubleSpend),
			errors.Is(err, state.ErrInputMismatch),
			errors.Is(err, state.ErrUnauthorized),
			errors.Is(err, state.ErrValueNotBalanced):
			return errs.NewTrusted(err, http.StatusBadRequest)
		case errors.Is(err, mempool.ErrClosed), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		}
		return fmt.Errorf("submit tx[%s]: %w", dbTx.ID(), err)
	}

	resp := submitted{
		Status: "transaction added to mempool",
		ID:     dbTx.ID(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Verify asks the node's light client to prove the transaction against the
// headers it has received.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txHash, err := signature.Normalize(web.Param(r, "hash"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := verified{
		TxHash:   txHash,
		Verified: h.Light.Verify(ctx, txHash),
		Peer:     h.Light.Name(),
		Headers:  len(h.Light.Headers()),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Accounts returns the current balances for all known accounts.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	nsAccounts := h.NS.Accounts()

	acts := make([]account, 0, len(nsAccounts))
	for _, a := range nsAccounts {
		balance, err := h.State.QueryBalance(a.Address())
		if err != nil {
			return err
		}

		acts = append(acts, account{
			Name:    a.Name,
			Address: a.Address(),
			Balance: balance,
		})
	}

	ai := actInfo{
		LatestBlock: h.State.RetrieveLatestBlock().Hash(),
		Height:      h.State.RetrieveHeight(),
		Uncommitted: h.State.QueryMempoolLength(),
		Accounts:    acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// UTXOs returns the true outputs owned by the address.
func (h Handlers) UTXOs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")
	if _, err := wallet.ParseAddress(address); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	ins, err := h.State.QueryTrueUTXOs(address)
	if err != nil {
		return err
	}

	utxos := make([]utxo, len(ins))
	for i, in := range ins {
		utxos[i] = utxo{
			TxIn: in,
			Name: h.NS.Lookup(in.UTXO.Address),
		}
	}

	return web.Respond(ctx, w, utxos, http.StatusOK)
}

// Blocks returns all the blocks and their details.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbBlocks, err := h.State.QueryBlocks()
	if err != nil {
		return err
	}

	blocks := make([]block, len(dbBlocks))
	for j, blk := range dbBlocks {
		trans := make([]tx, len(blk.Body.Trans))
		for i, tran := range blk.Body.Trans {
			trans[i] = toTx(tran, h.NS.Lookup)
		}

		blocks[j] = block{
			Number:        uint64(j),
			Hash:          blk.Hash(),
			PrevBlockHash: blk.Header.PrevBlockHash,
			MerkleRoot:    blk.Header.MerkleRoot,
			Nonce:         blk.Header.Nonce,
			Transactions:  trans,
		}
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pool := h.State.RetrieveMempool()

	trans := make([]tx, len(pool))
	for i, tran := range pool {
		trans[i] = toTx(tran, h.NS.Lookup)
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}
