package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var (
	to    string
	value uint64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address of the recipient.")
	sendCmd.Flags().Uint64VarP(&value, "value", "v", 0, "Value to send.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("value")
}

func sendRun(cmd *cobra.Command, args []string) {
	from, err := loadAccount()
	if err != nil {
		log.Fatal(err)
	}

	recipient, err := wallet.ParseAddress(to)
	if err != nil {
		log.Fatal(err)
	}

	utxos, err := fetchUTXOs(from.Address())
	if err != nil {
		log.Fatal(err)
	}

	tx, err := wallet.NewTransfer(from, recipient, value, utxos, time.Now())
	if err != nil {
		log.Fatal(err)
	}

	data, err := json.Marshal(tx)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := client.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewReader(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		log.Fatal(err)
	}

	fmt.Println(tx.ID())
}
