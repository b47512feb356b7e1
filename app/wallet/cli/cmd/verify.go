package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/spv"
	"github.com/spf13/cobra"
)

var (
	txHash     string
	nodeURL    string
	headersURL string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a transaction is part of the chain using only block headers",
	Long: `Without --headers-url the node's light peer verifies the transaction against
the headers it received. With --headers-url the wallet takes its headers from
that node and checks the proof served by --node-url itself.`,
	Run: verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&txHash, "tx", "x", "", "Hash of the transaction.")
	verifyCmd.Flags().StringVarP(&nodeURL, "node-url", "n", "http://localhost:9080", "Url of the private api serving proofs.")
	verifyCmd.Flags().StringVarP(&headersURL, "headers-url", "H", "", "Url of a different node's private api to take headers from.")
	verifyCmd.MarkFlagRequired("tx")
}

func verifyRun(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if headersURL == "" {
		resp, err := fetchVerified(ctx, txHash)
		if err != nil {
			log.Fatal(err)
		}

		printVerified(resp.TxHash, resp.Verified, fmt.Sprintf("%d headers held by %s", resp.Headers, resp.Peer))
		return
	}

	if headersURL == nodeURL {
		log.Fatal("headers and proofs must come from different nodes")
	}

	headers, err := spv.NewHTTPSource(headersURL).FetchHeaders(ctx)
	if err != nil {
		log.Fatal(err)
	}

	light := spv.NewClient("wallet", spv.NewHTTPSource(nodeURL))
	for _, h := range headers {
		light.Accept(h)
	}

	printVerified(txHash, light.Verify(ctx, txHash), fmt.Sprintf("%d headers from %s", len(headers), headersURL))
}

func printVerified(hash string, ok bool, against string) {
	if !ok {
		fmt.Printf("tx %s: NOT VERIFIED against %s\n", hash, against)
		return
	}

	fmt.Printf("tx %s: VERIFIED against %s\n", hash, against)
}

// verifyResponse is the answer of the node's light peer.
type verifyResponse struct {
	TxHash   string `json:"tx_hash"`
	Verified bool   `json:"verified"`
	Peer     string `json:"peer"`
	Headers  int    `json:"headers"`
}

// fetchVerified asks the node's light peer to verify the transaction.
func fetchVerified(ctx context.Context, hash string) (verifyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/spv/verify/%s", url, hash), nil)
	if err != nil {
		return verifyResponse{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return verifyResponse{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return verifyResponse{}, err
	}

	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return verifyResponse{}, err
	}

	return vr, nil
}
