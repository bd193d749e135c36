package finality

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// industry-standard reorg safety margin
	BITCOIN_FINALIZED_CONFIRMATIONS = 6
)

type bitcoinTxStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint64 `json:"block_height"`
}

type bitcoinTx struct {
	TxID   string          `json:"txid"`
	Status bitcoinTxStatus `json:"status"`
}

// BitcoinVerifier checks confirmation counts against an esplora-compatible
// block explorer API.
type BitcoinVerifier struct {
	HTTPClient *http.Client
	url        string
}

func NewBitcoinVerifier(url string) *BitcoinVerifier {
	return &BitcoinVerifier{
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		url: strings.TrimSuffix(url, "/"),
	}
}

// Verify requires at least one confirmation for confirmed and six for
// finalized.
func (v *BitcoinVerifier) Verify(ctx context.Context, txID string) (Result, error) {
	tx, found, err := v.transaction(ctx, txID)
	if err != nil {
		return Result{}, err
	}
	if !found || !tx.Status.Confirmed {
		return pending(), nil
	}

	tip, err := v.tipHeight(ctx)
	if err != nil {
		return Result{}, err
	}
	if tip < tx.Status.BlockHeight {
		return pending(), nil
	}

	confirmations := tip - tx.Status.BlockHeight + 1
	if confirmations >= BITCOIN_FINALIZED_CONFIRMATIONS {
		return Result{OK: true, Finality: LevelFinalized}, nil
	}
	return Result{OK: true, Finality: LevelConfirmed}, nil
}

func (v *BitcoinVerifier) transaction(ctx context.Context, txID string) (*bitcoinTx, bool, error) {
	url := fmt.Sprintf("%s/tx/%s", v.url, txID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("unexpected status code: %d, %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read response body: %w", err)
	}

	tx := new(bitcoinTx)
	if err := json.Unmarshal(body, tx); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return tx, true, nil
}

func (v *BitcoinVerifier) tipHeight(ctx context.Context) (uint64, error) {
	url := fmt.Sprintf("%s/blocks/tip/height", v.url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d, %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}

	height, err := strconv.ParseUint(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse tip height: %w", err)
	}

	return height, nil
}
