// Package private maintains the group of handlers for light client access.
package private

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/minichain/business/web/errs"
	"github.com/ardanlabs/minichain/foundation/blockchain/signature"
	"github.com/ardanlabs/minichain/foundation/blockchain/spv"
	"github.com/ardanlabs/minichain/foundation/blockchain/state"
	"github.com/ardanlabs/minichain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	total, err := h.State.QueryTotalValue()
	if err != nil {
		return err
	}

	peers := h.State.RetrievePeers()
	names := make([]string, len(peers))
	for i, p := range peers {
		names[i] = p.Name
	}

	status := struct {
		LatestBlockHash string   `json:"latest_block_hash"`
		Height          uint64   `json:"height"`
		Uncommitted     int      `json:"uncommitted"`
		TotalValue      uint64   `json:"total_value"`
		LightPeers      []string `json:"light_peers"`
	}{
		LatestBlockHash: h.State.RetrieveLatestBlock().Hash(),
		Height:          h.State.RetrieveHeight(),
		Uncommitted:     h.State.QueryMempoolLength(),
		TotalValue:      total,
		LightPeers:      names,
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Headers returns every block header in chain order.
func (h Handlers) Headers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	headers, err := h.State.QueryHeaders()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, headers, http.StatusOK)
}

// Proof returns the merkle path for the specified transaction.
func (h Handlers) Proof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txHash, err := signature.Normalize(web.Param(r, "hash"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	proof, err := h.State.QueryProof(ctx, txHash)
	if err != nil {
		if errors.Is(err, spv.ErrProofNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, proof, http.StatusOK)
}
