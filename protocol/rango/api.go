package rango

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/solbridge-labs/solbridge/types"
)

const (
	ProviderName = "rango"

	SOLANA_BLOCKCHAIN = "SOLANA"
)

// evmBlockchains maps EVM chain ids to Rango blockchain tags.
var evmBlockchains = map[string]string{
	"1":     "ETH",
	"10":    "OPTIMISM",
	"56":    "BSC",
	"137":   "POLYGON",
	"8453":  "BASE",
	"42161": "ARBITRUM",
	"43114": "AVAX_CCHAIN",
}

var kindBlockchains = map[types.ChainKind]string{
	types.ChainKindBitcoin: "BTC",
	types.ChainKindCosmos:  "COSMOS",
	types.ChainKindTon:     "TON",
}

type asset struct {
	Blockchain string `json:"blockchain"`
	Address    string `json:"address,omitempty"`
	Symbol     string `json:"symbol,omitempty"`
}

type routingRequest struct {
	From     asset  `json:"from"`
	To       asset  `json:"to"`
	Amount   string `json:"amount"`
	Slippage string `json:"slippage"`
}

type swapFee struct {
	Amount string `json:"amount"`
	Asset  struct {
		Symbol string `json:"symbol"`
	} `json:"asset"`
}

type swap struct {
	SwapperID              string    `json:"swapperId"`
	From                   asset     `json:"from"`
	To                     asset     `json:"to"`
	Fee                    []swapFee `json:"fee"`
	EstimatedTimeInSeconds uint64    `json:"estimatedTimeInSeconds"`
}

type routingResponse struct {
	RequestID string `json:"requestId"`
	Result    *struct {
		OutputAmount string `json:"outputAmount"`
		Swaps        []swap `json:"swaps"`
	} `json:"result"`
}

type createTxRequest struct {
	RequestID string `json:"requestId"`
	Step      int    `json:"step"`
	Slippage  string `json:"userSlippage"`
}

type rangoTransaction struct {
	Type string `json:"type"`

	// evm
	ChainID uint64 `json:"chainId,omitempty"`
	To      string `json:"to,omitempty"`
	Data    string `json:"data,omitempty"`
	Value   string `json:"value,omitempty"`

	// solana
	SerializedMessage string `json:"serializedMessage,omitempty"`

	// bitcoin
	Psbt             string   `json:"psbt,omitempty"`
	InputsToSign     []uint32 `json:"inputsToSign,omitempty"`
	RecipientAddress string   `json:"recipientAddress,omitempty"`
	Memo             string   `json:"memo,omitempty"`

	// cosmos
	CosmosChainID string            `json:"cosmosChainId,omitempty"`
	Msgs          []json.RawMessage `json:"msgs,omitempty"`
	Fee           json.RawMessage   `json:"fee,omitempty"`

	// ton
	Payload   string `json:"payload,omitempty"`
	StateInit string `json:"stateInit,omitempty"`
	Amount    string `json:"amount,omitempty"`
}

type createTxResponse struct {
	OK          bool              `json:"ok"`
	Error       string            `json:"error"`
	Transaction *rangoTransaction `json:"transaction"`
}

// RangoAPI quotes routes through the Rango multi-ecosystem aggregator. It is
// the only configured path for Bitcoin, Cosmos and TON sources.
type RangoAPI struct {
	HTTPClient *http.Client
	url        string
	apiKey     string
	solanaRPC  string
}

func NewRangoAPI(apiURL string, apiKey string, solanaRPC string) *RangoAPI {
	return &RangoAPI{
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		url:       apiURL,
		apiKey:    apiKey,
		solanaRPC: solanaRPC,
	}
}

func (a *RangoAPI) Name() string {
	return ProviderName
}

func (a *RangoAPI) IsConfigured() bool {
	return a.url != "" && a.apiKey != ""
}

func (a *RangoAPI) GetQuotes(ctx context.Context, req *types.QuoteRequest) ([]types.Route, error) {
	blockchain, err := a.blockchain(req.SourceKind, req.SourceChain)
	if err != nil {
		return nil, err
	}

	body := routingRequest{
		From: asset{
			Blockchain: blockchain,
			Address:    req.FromToken,
		},
		To: asset{
			Blockchain: SOLANA_BLOCKCHAIN,
			Address:    req.ToToken,
		},
		Amount:   req.Amount,
		Slippage: strconv.FormatFloat(req.Slippage, 'f', -1, 64),
	}

	var resp routingResponse
	if err := a.post(ctx, fmt.Sprintf("%s/routing/best?apiKey=%s", a.url, a.apiKey), body, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil || resp.RequestID == "" {
		// Rango returns an empty result for pairs it cannot serve
		return nil, nil
	}
	if resp.Result.OutputAmount == "" {
		return nil, fmt.Errorf("routing response missing output amount")
	}

	// only meaningful for EVM sources
	evmChainID, _ := strconv.ParseUint(req.SourceChain, 10, 64)

	steps := make([]types.RouteStep, 0, len(resp.Result.Swaps))
	fees := make([]types.Fee, 0)
	var eta uint64
	for _, s := range resp.Result.Swaps {
		kind := a.kindOf(s.From.Blockchain, req.SourceKind)
		step := types.RouteStep{
			Kind:        kind,
			Description: fmt.Sprintf("%s -> %s via %s", s.From.Blockchain, s.To.Blockchain, s.SwapperID),
		}
		if kind == types.ChainKindEVM {
			step.ChainID = evmChainID
		}
		steps = append(steps, step)
		for _, f := range s.Fee {
			fees = append(fees, types.Fee{
				Token:  f.Asset.Symbol,
				Amount: f.Amount,
			})
		}
		eta += s.EstimatedTimeInSeconds
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("routing response contains no swaps")
	}

	return []types.Route{{
		Provider:     ProviderName,
		RouteID:      resp.RequestID,
		Steps:        steps,
		OutputToken:  req.ToToken,
		OutputAmount: resp.Result.OutputAmount,
		Fees:         fees,
		EtaSeconds:   eta,
	}}, nil
}

func (a *RangoAPI) GetStepTx(ctx context.Context, routeID string, stepIndex int, ec types.ExecutionContext) (*types.TxRequest, error) {
	body := createTxRequest{
		RequestID: routeID,
		// Rango steps are 1-based
		Step:     stepIndex + 1,
		Slippage: strconv.FormatFloat(ec.Slippage, 'f', -1, 64),
	}

	var resp createTxResponse
	if err := a.post(ctx, fmt.Sprintf("%s/tx/create?apiKey=%s", a.url, a.apiKey), body, &resp); err != nil {
		return nil, err
	}
	if !resp.OK || resp.Transaction == nil {
		return nil, fmt.Errorf("transaction creation rejected: %s", resp.Error)
	}

	return a.toTxRequest(resp.Transaction)
}

func (a *RangoAPI) toTxRequest(tx *rangoTransaction) (*types.TxRequest, error) {
	switch tx.Type {
	case "EVM":
		return &types.TxRequest{
			Kind: types.ChainKindEVM,
			EVM: &types.EVMTx{
				ChainID: tx.ChainID,
				To:      tx.To,
				Data:    tx.Data,
				Value:   tx.Value,
			},
		}, nil
	case "SOLANA":
		return &types.TxRequest{
			Kind: types.ChainKindSolana,
			Solana: &types.SolanaTx{
				RPC:                a.solanaRPC,
				SerializedTxBase64: tx.SerializedMessage,
			},
		}, nil
	case "TRANSFER":
		return &types.TxRequest{
			Kind: types.ChainKindBitcoin,
			Bitcoin: &types.BitcoinTx{
				PsbtBase64:   tx.Psbt,
				InputsToSign: tx.InputsToSign,
				ToAddress:    tx.RecipientAddress,
				Amount:       tx.Amount,
				Memo:         tx.Memo,
			},
		}, nil
	case "COSMOS":
		return &types.TxRequest{
			Kind: types.ChainKindCosmos,
			Cosmos: &types.CosmosTx{
				ChainID:  tx.CosmosChainID,
				Messages: tx.Msgs,
				Fee:      tx.Fee,
				Memo:     tx.Memo,
			},
		}, nil
	case "TON":
		return &types.TxRequest{
			Kind: types.ChainKindTon,
			Ton: &types.TonTx{
				To:        tx.To,
				Amount:    tx.Amount,
				Payload:   tx.Payload,
				StateInit: tx.StateInit,
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown transaction type '%s'", tx.Type)
	}
}

func (a *RangoAPI) blockchain(kind types.ChainKind, sourceChain string) (string, error) {
	if kind == types.ChainKindEVM {
		blockchain, ok := evmBlockchains[sourceChain]
		if !ok {
			return "", types.ErrUnsupportedChain
		}
		return blockchain, nil
	}

	blockchain, ok := kindBlockchains[kind]
	if !ok {
		return "", types.ErrUnsupportedChain
	}
	return blockchain, nil
}

// kindOf maps a Rango blockchain tag back to a chain kind. Intermediate
// swaps on the destination side run on Solana.
func (a *RangoAPI) kindOf(blockchain string, sourceKind types.ChainKind) types.ChainKind {
	if blockchain == SOLANA_BLOCKCHAIN {
		return types.ChainKindSolana
	}
	for _, tag := range evmBlockchains {
		if tag == blockchain {
			return types.ChainKindEVM
		}
	}
	for kind, tag := range kindBlockchains {
		if tag == blockchain {
			return kind
		}
	}
	return sourceKind
}

func (a *RangoAPI) post(ctx context.Context, url string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d, %s", resp.StatusCode, url)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return nil
}
