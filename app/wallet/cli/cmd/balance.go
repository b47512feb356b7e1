package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	account, err := loadAccount()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("For Account:", account.Address())

	utxos, err := fetchUTXOs(account.Address())
	if err != nil {
		log.Fatal(err)
	}

	var balance uint64
	for _, in := range utxos {
		balance += in.UTXO.Amount
	}

	fmt.Println(balance)
}
