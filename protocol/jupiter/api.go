package jupiter

import (
	"bytes"
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
	ProviderTag = "jupiter"
)

// SwapQuote is a Jupiter quote for a Solana-side token swap. The raw quote
// is kept so it can be attached to a composed route step as opaque metadata.
type SwapQuote struct {
	InputMint  string          `json:"inputMint"`
	OutputMint string          `json:"outputMint"`
	InAmount   string          `json:"inAmount"`
	OutAmount  string          `json:"outAmount"`
	Raw        json.RawMessage `json:"-"`
}

// JupiterAPI quotes token swaps on Solana. It is used for composing an
// optional destination-side swap onto bridge routes, not as a standalone
// bridge provider.
type JupiterAPI struct {
	HTTPClient *http.Client
	url        string
	solanaRPC  string
}

func NewJupiterAPI(apiURL string, solanaRPC string) *JupiterAPI {
	return &JupiterAPI{
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		url:       apiURL,
		solanaRPC: solanaRPC,
	}
}

func (a *JupiterAPI) IsConfigured() bool {
	return a.url != ""
}

// QuoteSwap fetches a quote for swapping amount of inputMint into outputMint.
func (a *JupiterAPI) QuoteSwap(ctx context.Context, inputMint string, outputMint string, amount string, slippageBps int) (*SwapQuote, error) {
	params := url.Values{}
	params.Set("inputMint", inputMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", amount)
	params.Set("slippageBps", strconv.Itoa(slippageBps))

	endpoint := fmt.Sprintf("%s/v6/quote?%s", a.url, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, %s", resp.StatusCode, endpoint)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	quote := new(SwapQuote)
	if err := json.Unmarshal(body, quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if quote.OutAmount == "" {
		return nil, fmt.Errorf("quote response missing output amount")
	}

	quote.Raw = json.RawMessage(body)
	return quote, nil
}

type swapRequest struct {
	QuoteResponse    json.RawMessage `json:"quoteResponse"`
	UserPublicKey    string          `json:"userPublicKey"`
	WrapAndUnwrapSol bool            `json:"wrapAndUnwrapSol"`
}

type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// SwapTx exchanges a previously fetched quote for the serialized swap
// transaction the user signs. The quote is passed back verbatim, so composed
// route steps can carry it as opaque metadata until execution time.
func (a *JupiterAPI) SwapTx(ctx context.Context, quote json.RawMessage, userAddress string) (*types.TxRequest, error) {
	if len(quote) == 0 {
		return nil, fmt.Errorf("swap step carries no quote")
	}

	body, err := json.Marshal(swapRequest{
		QuoteResponse:    quote,
		UserPublicKey:    userAddress,
		WrapAndUnwrapSol: true,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v6/swap", a.url)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, %s", resp.StatusCode, endpoint)
	}

	swap := new(swapResponse)
	if err := json.NewDecoder(resp.Body).Decode(swap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if swap.SwapTransaction == "" {
		return nil, fmt.Errorf("swap response missing transaction")
	}

	return &types.TxRequest{
		Kind: types.ChainKindSolana,
		Solana: &types.SolanaTx{
			RPC:                a.solanaRPC,
			SerializedTxBase64: swap.SwapTransaction,
		},
	}, nil
}
