// Package spv implements simplified payment verification. A light client
// keeps only block headers and confirms a transaction is part of the chain
// by folding a merkle path supplied by a full node and checking the result
// against its own copy of the header.
package spv

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"sync"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/merkle"
	"github.com/ardanlabs/minichain/foundation/blockchain/signature"
)

// ErrProofNotFound is returned when no block holds the transaction.
var ErrProofNotFound = errors.New("proof not found")

// Proof is the authentication path for a transaction along with the root
// and height of the block that holds it.
type Proof struct {
	TxHash     string            `json:"tx_hash"`
	MerkleRoot string            `json:"merkle_root"`
	Height     uint64            `json:"height"`
	Path       []merkle.PathNode `json:"path"`
}

// ProofSource represents a full node that can produce proofs.
type ProofSource interface {
	QueryProof(ctx context.Context, txHash string) (Proof, error)
}

// =============================================================================

// VerifyProof folds the path over the transaction hash and reports whether
// the result matches both the root the full node claimed and the root of
// the locally held header at the proof's height.
func VerifyProof(proof Proof, headers []database.BlockHeader) bool {
	if proof.Height >= uint64(len(headers)) {
		return false
	}

	leaf, err := signature.Decode(proof.TxHash)
	if err != nil {
		return false
	}

	root, err := merkle.Fold(leaf, proof.Path, sha256.New)
	if err != nil {
		return false
	}

	claimed, err := signature.Decode(proof.MerkleRoot)
	if err != nil || !bytes.Equal(root, claimed) {
		return false
	}

	local, err := signature.Decode(headers[proof.Height].MerkleRoot)
	if err != nil || !bytes.Equal(root, local) {
		return false
	}

	return true
}

// =============================================================================

// Client represents a light peer that holds the chain of headers.
type Client struct {
	name    string
	source  ProofSource
	mu      sync.RWMutex
	headers []database.BlockHeader
}

// NewClient constructs a light client that requests proofs from the source.
func NewClient(name string, source ProofSource) *Client {
	return &Client{
		name:   name,
		source: source,
	}
}

// Name returns the name of the client.
func (c *Client) Name() string {
	return c.name
}

// Accept appends a newly sealed header. It implements peer.Subscriber.
func (c *Client) Accept(header database.BlockHeader) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.headers = append(c.headers, header)
}

// Headers returns a copy of the headers held by the client.
func (c *Client) Headers() []database.BlockHeader {
	c.mu.RLock()
	defer c.mu.RUnlock()

	headers := make([]database.BlockHeader, len(c.headers))
	copy(headers, c.headers)

	return headers
}

// Verify requests a proof for the transaction and checks it against the
// local headers. A missing proof is not verified.
func (c *Client) Verify(ctx context.Context, txHash string) bool {
	txHash, err := signature.Normalize(txHash)
	if err != nil {
		return false
	}

	proof, err := c.source.QueryProof(ctx, txHash)
	if err != nil {
		return false
	}

	if proof.TxHash != txHash {
		return false
	}

	return VerifyProof(proof, c.Headers())
}
