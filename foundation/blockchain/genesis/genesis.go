// Package genesis maintains access to the genesis file and builds the block
// that places the initial funds on the chain.
package genesis

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/wallet"
	"github.com/ethereum/go-ethereum/crypto"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time `json:"date"`
	ChainID       uint16    `json:"chain_id"`        // The chain id represents an unique id for this running instance.
	TransPerBlock uint16    `json:"trans_per_block"` // The fixed number of transactions in a block and the capacity of the mempool.
	Difficulty    string    `json:"difficulty"`      // Prefix the hex digest of a block must start with.
	Funding       uint64    `json:"funding"`         // Amount each known account starts with.
}

// Validate checks the genesis values can run a chain.
func (g Genesis) Validate() error {
	if g.TransPerBlock == 0 {
		return errors.New("trans_per_block must be at least one")
	}

	for _, c := range g.Difficulty {
		if !('0' <= c && c <= '9') && !('a' <= c && c <= 'f') {
			return fmt.Errorf("difficulty %q must be lower case hex", g.Difficulty)
		}
	}

	return nil
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// FundingBlock constructs the block that chains to the previous block and
// holds the one transaction allowed to create value. Each recipient is paid
// the funding amount. The transaction is signed by a throwaway key since it
// spends nothing.
func (g Genesis) FundingBlock(prevBlock database.Block, recipients []wallet.Recipient) (database.Block, error) {
	if len(recipients) == 0 {
		return database.Block{}, errors.New("no accounts to fund")
	}

	outputs := make([]database.UTXO, len(recipients))
	for i, r := range recipients {
		outputs[i] = r.UTXO(g.Funding)
	}

	dream, err := crypto.GenerateKey()
	if err != nil {
		return database.Block{}, err
	}

	tx, err := database.NewTx(nil, outputs, time.Now()).Sign(dream)
	if err != nil {
		return database.Block{}, err
	}

	block, err := database.NewBlock(prevBlock, []database.Tx{tx})
	if err != nil {
		return database.Block{}, err
	}

	var nonce [8]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return database.Block{}, err
	}
	block.Header.Nonce = binary.BigEndian.Uint64(nonce[:])

	return block, nil
}
