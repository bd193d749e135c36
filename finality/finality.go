// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package finality

import (
	"context"
	"fmt"

	"github.com/solbridge-labs/solbridge/types"
)

type Level string

const (
	LevelConfirmed Level = "confirmed"
	LevelFinalized Level = "finalized"
)

// Result is the outcome of a finality check. OK false with an empty Reason
// means the transaction is simply not final yet; a Reason marks a definite
// on-chain failure.
type Result struct {
	OK       bool
	Finality Level
	Reason   string
}

func pending() Result {
	return Result{OK: false}
}

func failed(reason string) Result {
	return Result{OK: false, Reason: reason}
}

// Verifier dispatches finality checks to chain-kind specific verifiers.
// Only EVM and Solana are driven by the automatic reconcile path; the other
// kinds are verification capabilities invoked on demand.
type Verifier struct {
	evm     *EVMVerifier
	solana  *SolanaVerifier
	bitcoin *BitcoinVerifier
	cosmos  *CosmosVerifier
	ton     *TonVerifier
}

func NewVerifier(
	evm *EVMVerifier,
	solana *SolanaVerifier,
	bitcoin *BitcoinVerifier,
	cosmos *CosmosVerifier,
	ton *TonVerifier,
) *Verifier {
	return &Verifier{
		evm:     evm,
		solana:  solana,
		bitcoin: bitcoin,
		cosmos:  cosmos,
		ton:     ton,
	}
}

// Verify checks whether the submitted transaction reached an acceptable
// confirmation level for its chain kind. chainID is only meaningful for EVM;
// chainTag selects the Cosmos chain for cosmos steps.
func (v *Verifier) Verify(
	ctx context.Context,
	kind types.ChainKind,
	chainID uint64,
	chainTag string,
	txHashOrSig string,
	expectedSender string,
) (Result, error) {
	switch kind {
	case types.ChainKindEVM:
		if v.evm == nil {
			return Result{}, fmt.Errorf("evm verifier not configured")
		}
		return v.evm.Verify(ctx, chainID, txHashOrSig, expectedSender)
	case types.ChainKindSolana:
		if v.solana == nil {
			return Result{}, fmt.Errorf("solana verifier not configured")
		}
		return v.solana.Verify(ctx, txHashOrSig)
	case types.ChainKindBitcoin:
		if v.bitcoin == nil {
			return Result{}, fmt.Errorf("bitcoin verifier not configured")
		}
		return v.bitcoin.Verify(ctx, txHashOrSig)
	case types.ChainKindCosmos:
		if v.cosmos == nil {
			return Result{}, fmt.Errorf("cosmos verifier not configured")
		}
		return v.cosmos.Verify(ctx, chainTag, txHashOrSig)
	case types.ChainKindTon:
		if v.ton == nil {
			return Result{}, fmt.Errorf("ton verifier not configured")
		}
		return v.ton.Verify(ctx, txHashOrSig)
	default:
		return Result{}, fmt.Errorf("unknown chain kind '%s'", kind)
	}
}

// AutoReconcilable reports whether the reconcile job drives this chain kind
// to confirmed server-side. Bitcoin, Cosmos and TON steps are confirmed by
// explicit client report only.
func (v *Verifier) AutoReconcilable(kind types.ChainKind) bool {
	switch kind {
	case types.ChainKindEVM:
		return v.evm != nil
	case types.ChainKindSolana:
		return v.solana != nil
	default:
		return false
	}
}
