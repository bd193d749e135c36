package finality

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type cosmosTxResponse struct {
	TxResponse struct {
		Code   uint32 `json:"code"`
		Height string `json:"height"`
		RawLog string `json:"raw_log"`
	} `json:"tx_response"`
}

// CosmosVerifier queries transactions on the configured Cosmos REST
// endpoints, keyed by chain tag ("cosmoshub", "osmosis", ...).
type CosmosVerifier struct {
	HTTPClient *http.Client
	endpoints  map[string]string
}

func NewCosmosVerifier(endpoints map[string]string) *CosmosVerifier {
	trimmed := make(map[string]string, len(endpoints))
	for tag, url := range endpoints {
		trimmed[tag] = strings.TrimSuffix(url, "/")
	}
	return &CosmosVerifier{
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		endpoints: trimmed,
	}
}

// Verify requires the transaction to exist with response code 0.
func (v *CosmosVerifier) Verify(ctx context.Context, chainTag string, txHash string) (Result, error) {
	endpoint, ok := v.endpoints[chainTag]
	if !ok {
		return Result{}, fmt.Errorf("no rest endpoint configured for cosmos chain '%s'", chainTag)
	}

	url := fmt.Sprintf("%s/cosmos/tx/v1beta1/txs/%s", endpoint, txHash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}

	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return pending(), nil
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("unexpected status code: %d, %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response body: %w", err)
	}

	tx := new(cosmosTxResponse)
	if err := json.Unmarshal(body, tx); err != nil {
		return Result{}, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	if tx.TxResponse.Code != 0 {
		return failed(fmt.Sprintf("transaction failed with code %d", tx.TxResponse.Code)), nil
	}

	return Result{OK: true, Finality: LevelConfirmed}, nil
}
