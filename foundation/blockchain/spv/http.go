package spv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
)

// HTTPSource requests proofs from a node's private API.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource constructs a source for the node at the base url.
func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		BaseURL: baseURL,
		Client:  http.DefaultClient,
	}
}

// QueryProof requests the proof for the transaction from the node.
func (hs *HTTPSource) QueryProof(ctx context.Context, txHash string) (Proof, error) {
	url := fmt.Sprintf("%s/v1/node/spv/proof/%s", hs.BaseURL, txHash)

	var proof Proof
	if err := hs.send(ctx, http.MethodGet, url, nil, &proof); err != nil {
		return Proof{}, err
	}

	return proof, nil
}

// FetchHeaders requests every block header from the node.
func (hs *HTTPSource) FetchHeaders(ctx context.Context) ([]database.BlockHeader, error) {
	url := fmt.Sprintf("%s/v1/node/spv/headers", hs.BaseURL)

	var headers []database.BlockHeader
	if err := hs.send(ctx, http.MethodGet, url, nil, &headers); err != nil {
		return nil, err
	}

	return headers, nil
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func (hs *HTTPSource) send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}

	client := hs.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrProofNotFound
	default:
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return errors.New(string(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
