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

type tonTransaction struct {
	Hash    string `json:"hash"`
	Success bool   `json:"success"`
}

// TonVerifier checks transaction existence against a tonapi-compatible
// endpoint. Presence of a successful transaction is treated as confirmed;
// TON offers no deeper finality distinction this system needs.
type TonVerifier struct {
	HTTPClient *http.Client
	url        string
}

func NewTonVerifier(url string) *TonVerifier {
	return &TonVerifier{
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		url: strings.TrimSuffix(url, "/"),
	}
}

func (v *TonVerifier) Verify(ctx context.Context, txHash string) (Result, error) {
	url := fmt.Sprintf("%s/v2/blockchain/transactions/%s", v.url, txHash)
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

	tx := new(tonTransaction)
	if err := json.Unmarshal(body, tx); err != nil {
		return Result{}, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	if !tx.Success {
		return failed("transaction failed on-chain"), nil
	}

	return Result{OK: true, Finality: LevelConfirmed}, nil
}
