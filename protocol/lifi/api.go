package lifi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/solbridge-labs/solbridge/types"
)

const (
	ProviderName = "lifi"

	// LiFi's internal chain id for Solana
	SOLANA_CHAIN_ID = "1151111081099710"
)

type feeCost struct {
	Amount string `json:"amount"`
	Token  struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"token"`
}

type includedStep struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Tool   string `json:"tool"`
	Action struct {
		FromChainID uint64 `json:"fromChainId"`
	} `json:"action"`
}

type quoteResponse struct {
	ID       string `json:"id"`
	Estimate struct {
		ToAmount          string    `json:"toAmount"`
		ExecutionDuration float64   `json:"executionDuration"`
		FeeCosts          []feeCost `json:"feeCosts"`
	} `json:"estimate"`
	IncludedSteps []includedStep `json:"includedSteps"`
}

type stepTransactionResponse struct {
	TransactionRequest struct {
		ChainID uint64 `json:"chainId"`
		To      string `json:"to"`
		Data    string `json:"data"`
		Value   string `json:"value"`
	} `json:"transactionRequest"`
}

// LifiAPI quotes EVM-to-Solana bridge routes through the LiFi aggregation
// API. Non-EVM source chains are not served.
type LifiAPI struct {
	HTTPClient *http.Client
	url        string
}

func NewLifiAPI(apiURL string) *LifiAPI {
	return &LifiAPI{
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		url: apiURL,
	}
}

func (a *LifiAPI) Name() string {
	return ProviderName
}

func (a *LifiAPI) IsConfigured() bool {
	return a.url != ""
}

func (a *LifiAPI) GetQuotes(ctx context.Context, req *types.QuoteRequest) ([]types.Route, error) {
	if req.SourceKind != types.ChainKindEVM {
		return nil, types.ErrUnsupportedChain
	}

	chainID, err := strconv.ParseUint(req.SourceChain, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid evm chain id '%s': %w", req.SourceChain, err)
	}

	params := url.Values{}
	params.Set("fromChain", req.SourceChain)
	params.Set("toChain", SOLANA_CHAIN_ID)
	params.Set("fromToken", req.FromToken)
	params.Set("toToken", req.ToToken)
	params.Set("fromAmount", req.Amount)
	params.Set("fromAddress", req.SourceAddress)
	params.Set("toAddress", req.DestinationAddress)
	params.Set("slippage", strconv.FormatFloat(req.Slippage/100, 'f', -1, 64))

	var quote quoteResponse
	if err := a.get(ctx, fmt.Sprintf("%s/v1/quote?%s", a.url, params.Encode()), &quote); err != nil {
		return nil, err
	}
	if quote.ID == "" || quote.Estimate.ToAmount == "" {
		return nil, fmt.Errorf("quote response missing id or estimate")
	}

	steps := make([]types.RouteStep, 0, len(quote.IncludedSteps))
	for _, s := range quote.IncludedSteps {
		steps = append(steps, types.RouteStep{
			Kind:        types.ChainKindEVM,
			ChainID:     chainID,
			Description: fmt.Sprintf("%s via %s", s.Type, s.Tool),
		})
	}
	if len(steps) == 0 {
		steps = append(steps, types.RouteStep{
			Kind:        types.ChainKindEVM,
			ChainID:     chainID,
			Description: "bridge via lifi",
		})
	}

	fees := make([]types.Fee, 0, len(quote.Estimate.FeeCosts))
	for _, f := range quote.Estimate.FeeCosts {
		fees = append(fees, types.Fee{
			Token:  f.Token.Symbol,
			Amount: f.Amount,
		})
	}

	return []types.Route{{
		Provider:     ProviderName,
		RouteID:      quote.ID,
		Steps:        steps,
		OutputToken:  req.ToToken,
		OutputAmount: quote.Estimate.ToAmount,
		Fees:         fees,
		EtaSeconds:   uint64(quote.Estimate.ExecutionDuration),
	}}, nil
}

func (a *LifiAPI) GetStepTx(ctx context.Context, routeID string, stepIndex int, ec types.ExecutionContext) (*types.TxRequest, error) {
	params := url.Values{}
	params.Set("fromAmount", ec.Amount)
	params.Set("slippage", strconv.FormatFloat(ec.Slippage/100, 'f', -1, 64))

	endpoint := fmt.Sprintf("%s/v1/quote/%s/steps/%d/transaction?%s", a.url, routeID, stepIndex, params.Encode())
	var resp stepTransactionResponse
	if err := a.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.TransactionRequest.To == "" {
		return nil, fmt.Errorf("step transaction response missing target")
	}

	return &types.TxRequest{
		Kind: types.ChainKindEVM,
		EVM: &types.EVMTx{
			ChainID: resp.TransactionRequest.ChainID,
			To:      resp.TransactionRequest.To,
			Data:    resp.TransactionRequest.Data,
			Value:   resp.TransactionRequest.Value,
		},
	}, nil
}

func (a *LifiAPI) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d, %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return nil
}
