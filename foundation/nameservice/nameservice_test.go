package nameservice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/minichain/foundation/blockchain/wallet"
	"github.com/ardanlabs/minichain/foundation/nameservice"
	"github.com/stretchr/testify/require"
)

func Test_NameService(t *testing.T) {
	dir := t.TempDir()

	var addresses []string
	for _, name := range []string{"pavel", "kennedy"} {
		a, err := wallet.NewAccount(name)
		require.NoError(t, err)
		require.NoError(t, a.Save(filepath.Join(dir, name+wallet.KeyExtension)))
		addresses = append(addresses, a.Address())
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))

	ns, err := nameservice.New(dir)
	require.NoError(t, err)

	require.Equal(t, "pavel", ns.Lookup(addresses[0]))
	require.Equal(t, "kennedy", ns.Lookup(addresses[1]))
	require.Equal(t, "unknown", ns.Lookup("unknown"))
	require.Len(t, ns.Copy(), 2)

	accounts := ns.Accounts()
	require.Len(t, accounts, 2)
	require.Equal(t, "kennedy", accounts[0].Name)
	require.Equal(t, "pavel", accounts[1].Name)

	recipients := ns.Recipients()
	require.Equal(t, addresses[1], recipients[0].Address)
}
