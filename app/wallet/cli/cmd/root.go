// Package cmd contains wallet app
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	url         string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Your simple wallet",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	name := accountName
	if !strings.HasSuffix(name, wallet.KeyExtension) {
		name += wallet.KeyExtension
	}

	return filepath.Join(accountPath, name)
}

func loadAccount() (wallet.Account, error) {
	return wallet.LoadAccount(getPrivateKeyPath())
}

// =============================================================================

var client = http.Client{
	Timeout: 30 * time.Second,
}

// fetchUTXOs asks the node for the true outputs owned by the address.
func fetchUTXOs(address string) ([]database.TxIn, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/accounts/utxos/%s", url, address))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var utxos []database.TxIn
	if err := json.NewDecoder(resp.Body).Decode(&utxos); err != nil {
		return nil, err
	}

	return utxos, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var er struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &er); err != nil || er.Error == "" {
		return fmt.Errorf("node responded %d: %s", resp.StatusCode, string(data))
	}

	if len(er.Fields) > 0 {
		return fmt.Errorf("%s: %v", er.Error, er.Fields)
	}

	return errors.New(er.Error)
}
