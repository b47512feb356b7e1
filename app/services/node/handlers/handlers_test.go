package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/minichain/app/services/node/handlers"
	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/genesis"
	"github.com/ardanlabs/minichain/foundation/blockchain/peer"
	"github.com/ardanlabs/minichain/foundation/blockchain/spv"
	"github.com/ardanlabs/minichain/foundation/blockchain/state"
	"github.com/ardanlabs/minichain/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/minichain/foundation/blockchain/wallet"
	"github.com/ardanlabs/minichain/foundation/events"
	"github.com/ardanlabs/minichain/foundation/logger"
	"github.com/ardanlabs/minichain/foundation/nameservice"
	"github.com/stretchr/testify/require"
)

type node struct {
	state    *state.State
	ns       *nameservice.NameService
	public   http.Handler
	private  http.Handler
	kennedy  wallet.Account
	pavel    wallet.Account
	shutdown chan os.Signal
}

func newNode(t *testing.T) node {
	log, err := logger.New("TEST")
	require.NoError(t, err)
	t.Cleanup(func() { log.Sync() })

	dir := t.TempDir()
	for _, name := range []string{"kennedy", "pavel"} {
		a, err := wallet.NewAccount(name)
		require.NoError(t, err)
		require.NoError(t, a.Save(filepath.Join(dir, name+wallet.KeyExtension)))
	}

	ns, err := nameservice.New(dir)
	require.NoError(t, err)

	// The light peer asks the state for proofs once it exists.
	source := stateSource{}
	light := spv.NewClient("light1", &source)

	peers := peer.NewPeerSet()
	peers.Add(peer.New(light.Name(), light))

	st, err := state.New(state.Config{
		Genesis: genesis.Genesis{
			Date:          time.Now(),
			TransPerBlock: 1,
			Difficulty:    "0",
			Funding:       1000,
		},
		Storage: memory.New(),
		Peers:   peers,
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Shutdown() })
	source.st = st

	_, err = st.FundAccounts(ns.Recipients())
	require.NoError(t, err)

	evts := events.New()
	t.Cleanup(evts.Shutdown)

	shutdown := make(chan os.Signal, 1)
	cfg := handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		NS:       ns,
		Evts:     evts,
		Light:    light,
	}

	accounts := ns.Accounts()

	return node{
		state:    st,
		ns:       ns,
		public:   handlers.PublicMux(cfg),
		private:  handlers.PrivateMux(cfg),
		kennedy:  accounts[0],
		pavel:    accounts[1],
		shutdown: shutdown,
	}
}

type stateSource struct {
	st *state.State
}

func (s *stateSource) QueryProof(ctx context.Context, txHash string) (spv.Proof, error) {
	return s.st.QueryProof(ctx, txHash)
}

func submit(t *testing.T, h http.Handler, tx database.Tx) *httptest.ResponseRecorder {
	data, err := json.Marshal(tx)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/tx/submit", bytes.NewReader(data)))

	return w
}

func Test_Accounts(t *testing.T) {
	n := newNode(t)

	w := httptest.NewRecorder()
	n.public.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/accounts/list", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Height   uint64 `json:"height"`
		Accounts []struct {
			Name    string `json:"name"`
			Address string `json:"address"`
			Balance uint64 `json:"balance"`
		} `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, uint64(1), resp.Height)
	require.Len(t, resp.Accounts, 2)
	require.Equal(t, "kennedy", resp.Accounts[0].Name)
	require.Equal(t, uint64(1000), resp.Accounts[0].Balance)

	w = httptest.NewRecorder()
	n.public.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/accounts/utxos/"+n.kennedy.Address(), nil))
	require.Equal(t, http.StatusOK, w.Code)

	var utxos []struct {
		database.TxIn
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &utxos))
	require.Len(t, utxos, 1)
	require.Equal(t, "kennedy", utxos[0].Name)
	require.Equal(t, uint64(1000), utxos[0].UTXO.Amount)

	w = httptest.NewRecorder()
	n.public.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/accounts/utxos/not-an-address", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func Test_SubmitAndProve(t *testing.T) {
	n := newNode(t)

	utxos, err := n.state.QueryTrueUTXOs(n.kennedy.Address())
	require.NoError(t, err)

	tx, err := wallet.NewTransfer(n.kennedy, n.pavel.Recipient(), 400, utxos, time.Now())
	require.NoError(t, err)

	forged := tx
	forged.Outputs = append([]database.UTXO{}, tx.Outputs...)
	forged.Outputs[0].Amount = 900
	w := submit(t, n.public, forged)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = submit(t, n.public, database.Tx{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "data validation error")

	w = submit(t, n.public, tx)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, 1, n.state.QueryMempoolLength())

	w = submit(t, n.public, tx)
	require.Equal(t, http.StatusBadRequest, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = n.state.MineNewBlock(ctx)
	require.NoError(t, err)

	srv := httptest.NewServer(n.private)
	defer srv.Close()

	source := spv.NewHTTPSource(srv.URL)
	headers, err := source.FetchHeaders(ctx)
	require.NoError(t, err)
	require.Len(t, headers, 3)

	client := spv.NewClient("light", source)
	for _, h := range headers {
		client.Accept(h)
	}

	require.True(t, client.Verify(ctx, tx.ID()))

	unknown := "0x" + strings.Repeat("cd", 32)
	_, err = source.QueryProof(ctx, unknown)
	require.True(t, errors.Is(err, spv.ErrProofNotFound))
	require.False(t, client.Verify(ctx, unknown))

	upper := "0x" + strings.ToUpper(strings.TrimPrefix(tx.ID(), "0x"))
	require.True(t, client.Verify(ctx, upper))
	require.True(t, client.Verify(ctx, strings.TrimPrefix(tx.ID(), "0x")))

	w = httptest.NewRecorder()
	n.private.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/node/spv/proof/"+strings.TrimPrefix(upper, "0x"), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	balance, err := n.state.QueryBalance(n.pavel.Address())
	require.NoError(t, err)
	require.Equal(t, uint64(1400), balance)
}

func Test_LightPeerVerify(t *testing.T) {
	n := newNode(t)

	utxos, err := n.state.QueryTrueUTXOs(n.kennedy.Address())
	require.NoError(t, err)

	tx, err := wallet.NewTransfer(n.kennedy, n.pavel.Recipient(), 250, utxos, time.Now())
	require.NoError(t, err)

	w := submit(t, n.public, tx)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = n.state.MineNewBlock(ctx)
	require.NoError(t, err)

	type verified struct {
		TxHash   string `json:"tx_hash"`
		Verified bool   `json:"verified"`
		Peer     string `json:"peer"`
		Headers  int    `json:"headers"`
	}

	verify := func(hash string) (int, verified) {
		w := httptest.NewRecorder()
		n.public.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/spv/verify/"+hash, nil))

		var resp verified
		if w.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		}

		return w.Code, resp
	}

	code, resp := verify(tx.ID())
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.Verified)
	require.Equal(t, "light1", resp.Peer)
	require.Equal(t, 3, resp.Headers)

	code, resp = verify(strings.ToUpper(strings.TrimPrefix(tx.ID(), "0x")))
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.Verified)
	require.Equal(t, tx.ID(), resp.TxHash)

	code, resp = verify("0x" + strings.Repeat("ab", 32))
	require.Equal(t, http.StatusOK, code)
	require.False(t, resp.Verified)

	code, _ = verify("not-hex")
	require.Equal(t, http.StatusBadRequest, code)
}

func Test_SubmitRefused(t *testing.T) {
	n := newNode(t)

	utxos, err := n.state.QueryTrueUTXOs(n.kennedy.Address())
	require.NoError(t, err)

	inflated := utxos[0]
	inflated.UTXO.Amount = 1_000_000
	tx, err := database.NewTx([]database.TxIn{inflated}, []database.UTXO{n.kennedy.UTXO(1_000_000)}, time.Now()).Sign(n.kennedy.PrivateKey)
	require.NoError(t, err)

	w := submit(t, n.public, tx)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	tx, err = database.NewTx(utxos, []database.UTXO{n.pavel.UTXO(1000)}, time.Now()).Sign(n.pavel.PrivateKey)
	require.NoError(t, err)

	w = submit(t, n.public, tx)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	tx, err = database.NewTx(utxos, []database.UTXO{n.pavel.UTXO(5000)}, time.Now()).Sign(n.kennedy.PrivateKey)
	require.NoError(t, err)

	w = submit(t, n.public, tx)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	require.Equal(t, 0, n.state.QueryMempoolLength())

	total, err := n.state.QueryTotalValue()
	require.NoError(t, err)
	require.Equal(t, uint64(2000), total)
}

func Test_Status(t *testing.T) {
	n := newNode(t)

	w := httptest.NewRecorder()
	n.private.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/node/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var status struct {
		Height     uint64 `json:"height"`
		TotalValue uint64 `json:"total_value"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Equal(t, uint64(1), status.Height)
	require.Equal(t, uint64(2000), status.TotalValue)
}
