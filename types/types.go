package types

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// ChainKind is the execution environment of a step. Each kind has its own
// signing flow and finality semantics.
type ChainKind string

const (
	ChainKindEVM     ChainKind = "evm"
	ChainKindSolana  ChainKind = "solana"
	ChainKindBitcoin ChainKind = "bitcoin"
	ChainKindCosmos  ChainKind = "cosmos"
	ChainKindTon     ChainKind = "ton"
)

const (
	DefaultSlippage = 3.0
	MinSlippage     = 0.1
	MaxSlippage     = 50.0
)

// QuoteRequest is the immutable input for quote aggregation. SourceChain is
// either a numeric EVM chain id or a symbolic tag for non-EVM chains
// ("bitcoin", "cosmoshub", "ton"). Amount is a raw integer string in base
// units of the source token.
type QuoteRequest struct {
	SourceChain        string    `json:"sourceChain"`
	SourceKind         ChainKind `json:"sourceKind"`
	FromToken          string    `json:"fromToken"`
	Amount             string    `json:"amount"`
	ToToken            string    `json:"toToken"`
	SourceAddress      string    `json:"sourceAddress"`
	DestinationAddress string    `json:"destinationAddress"`
	Slippage           float64   `json:"slippage,omitempty"`
}

func (r *QuoteRequest) Validate() error {
	switch r.SourceKind {
	case ChainKindEVM, ChainKindBitcoin, ChainKindCosmos, ChainKindTon:
	case ChainKindSolana:
		return NewError(CodeValidation, "solana is a destination chain only")
	default:
		return NewError(CodeValidation, fmt.Sprintf("unknown source chain kind '%s'", r.SourceKind))
	}

	if r.SourceChain == "" {
		return NewError(CodeValidation, "missing field 'sourceChain'")
	}
	if r.FromToken == "" {
		return NewError(CodeValidation, "missing field 'fromToken'")
	}
	if r.ToToken == "" {
		return NewError(CodeValidation, "missing field 'toToken'")
	}
	if r.SourceAddress == "" {
		return NewError(CodeValidation, "missing field 'sourceAddress'")
	}
	if r.DestinationAddress == "" {
		return NewError(CodeValidation, "missing field 'destinationAddress'")
	}

	amount, ok := new(big.Int).SetString(r.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return NewError(CodeValidation, fmt.Sprintf("field 'amount' must be a positive base-unit integer, got '%s'", r.Amount))
	}

	if r.Slippage == 0 {
		r.Slippage = DefaultSlippage
	}
	if r.Slippage < MinSlippage || r.Slippage > MaxSlippage {
		return NewError(CodeValidation, fmt.Sprintf("slippage %.2f out of range [%.1f, %.1f]", r.Slippage, MinSlippage, MaxSlippage))
	}

	return nil
}

// RouteStep is one signable action inside a route.
type RouteStep struct {
	Kind        ChainKind       `json:"kind"`
	ChainID     uint64          `json:"chainId,omitempty"`
	Description string          `json:"description"`
	Provider    string          `json:"provider,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// Fee is a (token, amount) pair. Amounts are raw integer strings and are only
// ever compared with big.Int arithmetic.
type Fee struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

// RouteAction is a non-executable navigational pointer used by routes that
// bypass provider execution entirely (e.g. an official 1:1 bridge frontend).
// Routes carrying an action are rejected by every step-execution operation.
type RouteAction struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Route is one provider's proposal for moving value from source to
// destination. RouteID is provider-scoped and must be enough for the provider
// to rebuild step transactions later.
type Route struct {
	Provider        string       `json:"provider"`
	RouteID         string       `json:"routeId"`
	Steps           []RouteStep  `json:"steps"`
	OutputToken     string       `json:"outputToken"`
	OutputAmount    string       `json:"outputAmount"`
	Fees            []Fee        `json:"fees,omitempty"`
	EtaSeconds      uint64       `json:"etaSeconds,omitempty"`
	Warnings        []string     `json:"warnings,omitempty"`
	Action          *RouteAction `json:"action,omitempty"`
}

func (r *Route) Validate() error {
	if r.Provider == "" {
		return NewError(CodeValidation, "route missing provider")
	}
	if r.Action == nil && len(r.Steps) == 0 {
		return NewError(CodeValidation, "route has no steps and no action")
	}
	if r.Action == nil && r.RouteID == "" {
		return NewError(CodeValidation, "route missing routeId")
	}
	return nil
}

// Executable reports whether the route can be driven through the session
// state machine. Action routes are informational only.
func (r *Route) Executable() bool {
	return r.Action == nil
}

// ExecutionContext is the server-side snapshot of the request values needed
// to rebuild provider calls at step time. It is persisted with the session so
// step execution never trusts client-resupplied chain, token or amount
// values. Version guards future schema additions.
type ExecutionContext struct {
	Version     int       `json:"version"`
	SourceChain string    `json:"sourceChain"`
	SourceKind  ChainKind `json:"sourceKind"`
	FromToken   string    `json:"fromToken"`
	ToToken     string    `json:"toToken"`
	Amount      string    `json:"amount"`
	Slippage    float64   `json:"slippage"`
}

const ExecutionContextVersion = 1

func NewExecutionContext(r *QuoteRequest) ExecutionContext {
	return ExecutionContext{
		Version:     ExecutionContextVersion,
		SourceChain: r.SourceChain,
		SourceKind:  r.SourceKind,
		FromToken:   r.FromToken,
		ToToken:     r.ToToken,
		Amount:      r.Amount,
		Slippage:    r.Slippage,
	}
}
