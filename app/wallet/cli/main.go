// This program is a wallet for the blockchain. It manages a private key,
// builds and signs transfers, and verifies transactions as a light client.
package main

import "github.com/ardanlabs/minichain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
