package public

import (
	"github.com/ardanlabs/minichain/foundation/blockchain/database"
)

type account struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

type actInfo struct {
	LatestBlock string    `json:"latest_block"`
	Height      uint64    `json:"height"`
	Uncommitted int       `json:"uncommitted"`
	Accounts    []account `json:"accounts"`
}

type utxo struct {
	database.TxIn
	Name string `json:"name"`
}

type output struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Amount  uint64 `json:"amount"`
}

type input struct {
	TxID    string `json:"tx_id"`
	Index   uint32 `json:"index"`
	Address string `json:"address"`
	Name    string `json:"name"`
	Amount  uint64 `json:"amount"`
}

type tx struct {
	ID        string   `json:"id"`
	Inputs    []input  `json:"inputs"`
	Outputs   []output `json:"outputs"`
	TimeStamp int64    `json:"timestamp"`
}

type block struct {
	Number        uint64 `json:"number"`
	Hash          string `json:"hash"`
	PrevBlockHash string `json:"prev_block_hash"`
	MerkleRoot    string `json:"merkle_root"`
	Nonce         uint64 `json:"nonce"`
	Transactions  []tx   `json:"txs"`
}

type submitted struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// =============================================================================

func toTx(dbTx database.Tx, lookup func(string) string) tx {
	inputs := make([]input, len(dbTx.Inputs))
	for i, in := range dbTx.Inputs {
		inputs[i] = input{
			TxID:    in.OutPoint.TxID,
			Index:   in.OutPoint.Index,
			Address: in.UTXO.Address,
			Name:    lookup(in.UTXO.Address),
			Amount:  in.UTXO.Amount,
		}
	}

	outputs := make([]output, len(dbTx.Outputs))
	for i, out := range dbTx.Outputs {
		outputs[i] = output{
			Address: out.Address,
			Name:    lookup(out.Address),
			Amount:  out.Amount,
		}
	}

	return tx{
		ID:        dbTx.ID(),
		Inputs:    inputs,
		Outputs:   outputs,
		TimeStamp: dbTx.TimeStamp,
	}
}

type verified struct {
	TxHash   string `json:"tx_hash"`
	Verified bool   `json:"verified"`
	Peer     string `json:"peer"`
	Headers  int    `json:"headers"`
}
