package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/genesis"
	"github.com/ardanlabs/minichain/foundation/blockchain/wallet"
)

func Test_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	doc := `{"date":"2024-01-01T00:00:00Z","chain_id":1,"trans_per_block":2,"difficulty":"00","funding":1000}`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatalf("Should be able to write the genesis file: %s", err)
	}

	gen, err := genesis.Load(path)
	if err != nil {
		t.Fatalf("Should be able to load the genesis file: %s", err)
	}

	if gen.TransPerBlock != 2 || gen.Difficulty != "00" || gen.Funding != 1000 || gen.ChainID != 1 {
		t.Fatalf("Should get back the genesis values: %+v", gen)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"trans_per_block":0}`), 0600); err != nil {
		t.Fatalf("Should be able to write the genesis file: %s", err)
	}

	if _, err := genesis.Load(bad); err == nil {
		t.Fatalf("Should not load a genesis file without a batch size.")
	}

	if err := (genesis.Genesis{TransPerBlock: 1, Difficulty: "0x"}).Validate(); err == nil {
		t.Fatalf("Should not accept a difficulty that is not hex.")
	}
}

func Test_FundingBlock(t *testing.T) {
	gen := genesis.Genesis{TransPerBlock: 1, Difficulty: "0", Funding: 1000}

	var recipients []wallet.Recipient
	for _, name := range []string{"kennedy", "pavel", "ceasar"} {
		a, err := wallet.NewAccount(name)
		if err != nil {
			t.Fatalf("Should be able to create an account: %s", err)
		}
		recipients = append(recipients, a.Recipient())
	}

	prev := database.GenesisBlock()
	block, err := gen.FundingBlock(prev, recipients)
	if err != nil {
		t.Fatalf("Should be able to build the funding block: %s", err)
	}

	if block.Header.PrevBlockHash != prev.Hash() {
		t.Fatalf("Should chain to the previous block.")
	}

	if len(block.Body.Trans) != 1 {
		t.Fatalf("Should hold a single transaction, got %d.", len(block.Body.Trans))
	}

	tx := block.Body.Trans[0]
	if len(tx.Inputs) != 0 || len(tx.Outputs) != 3 || tx.OutputTotal() != 3000 {
		t.Fatalf("Should pay every recipient the funding amount.")
	}

	if err := tx.Validate(); err != nil {
		t.Fatalf("Should be signed: %s", err)
	}

	if block.Header.MerkleRoot != tx.ID() {
		t.Fatalf("Should have the transaction hash as the root of a single leaf tree.")
	}

	if _, err := gen.FundingBlock(prev, nil); err == nil {
		t.Fatalf("Should not build a funding block without recipients.")
	}
}
