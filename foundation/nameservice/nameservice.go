// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for the accounts the node knows about.
package nameservice

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/ardanlabs/minichain/foundation/blockchain/wallet"
)

// NameService maintains a map of addresses for name lookup along with the
// accounts that were loaded.
type NameService struct {
	names    map[string]string
	accounts []wallet.Account
}

// New constructs a name service with the accounts from the zblock/accounts
// folder.
func New(root string) (*NameService, error) {
	ns := NameService{
		names: make(map[string]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != wallet.KeyExtension {
			return nil
		}

		account, err := wallet.LoadAccount(fileName)
		if err != nil {
			return err
		}

		ns.names[account.Address()] = account.Name
		ns.accounts = append(ns.accounts, account)

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(ns.accounts, func(i, j int) bool {
		return ns.accounts[i].Name < ns.accounts[j].Name
	})

	return &ns, nil
}

// Lookup returns the name for the specified address. The address is
// returned when no name is known.
func (ns *NameService) Lookup(address string) string {
	name, exists := ns.names[address]
	if !exists {
		return address
	}
	return name
}

// Copy returns a copy of the map of addresses and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.names))
	for address, name := range ns.names {
		cpy[address] = name
	}
	return cpy
}

// Accounts returns the loaded accounts ordered by name.
func (ns *NameService) Accounts() []wallet.Account {
	accounts := make([]wallet.Account, len(ns.accounts))
	copy(accounts, ns.accounts)
	return accounts
}

// Recipients returns the payment information for every loaded account
// ordered by name.
func (ns *NameService) Recipients() []wallet.Recipient {
	recipients := make([]wallet.Recipient, len(ns.accounts))
	for i, account := range ns.accounts {
		recipients[i] = account.Recipient()
	}
	return recipients
}
