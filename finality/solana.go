// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package finality

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type SolanaClient interface {
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// SolanaVerifier checks signature statuses against a Solana RPC node.
type SolanaVerifier struct {
	client SolanaClient
}

func NewSolanaVerifier(endpoint string) *SolanaVerifier {
	return &SolanaVerifier{client: rpc.New(endpoint)}
}

func NewSolanaVerifierWithClient(client SolanaClient) *SolanaVerifier {
	return &SolanaVerifier{client: client}
}

// Verify queries the signature status with history search enabled and treats
// confirmed/finalized commitment, or at least one confirmation, as success.
func (v *SolanaVerifier) Verify(ctx context.Context, signature string) (Result, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return Result{}, fmt.Errorf("malformed signature: %w", err)
	}

	out, err := v.client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch signature status: %w", err)
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return pending(), nil
	}

	status := out.Value[0]
	if status.Err != nil {
		return failed(fmt.Sprintf("transaction failed on-chain: %v", status.Err)), nil
	}

	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		return Result{OK: true, Finality: LevelFinalized}, nil
	case rpc.ConfirmationStatusConfirmed:
		return Result{OK: true, Finality: LevelConfirmed}, nil
	}

	if status.Confirmations != nil && *status.Confirmations >= 1 {
		return Result{OK: true, Finality: LevelConfirmed}, nil
	}

	return pending(), nil
}
