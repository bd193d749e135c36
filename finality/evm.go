// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package finality

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

type EVMClient interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethTypes.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*ethTypes.Transaction, bool, error)
}

// EVMVerifier checks transaction receipts on every configured EVM chain.
type EVMVerifier struct {
	clients map[uint64]EVMClient
}

func NewEVMVerifier(endpoints map[uint64]string) (*EVMVerifier, error) {
	clients := make(map[uint64]EVMClient)
	for chainID, endpoint := range endpoints {
		client, err := ethclient.Dial(endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to dial rpc for chain %d: %w", chainID, err)
		}
		clients[chainID] = client
	}
	return &EVMVerifier{clients: clients}, nil
}

func NewEVMVerifierWithClients(clients map[uint64]EVMClient) *EVMVerifier {
	return &EVMVerifier{clients: clients}
}

// Verify fetches the receipt for the hash and requires a success status. A
// missing receipt is not an error; the transaction is just not mined yet.
func (v *EVMVerifier) Verify(ctx context.Context, chainID uint64, txHash string, expectedSender string) (Result, error) {
	client, ok := v.clients[chainID]
	if !ok {
		return Result{}, fmt.Errorf("no rpc endpoint configured for chain %d", chainID)
	}

	hash := common.HexToHash(txHash)
	receipt, err := client.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return pending(), nil
		}
		return Result{}, fmt.Errorf("failed to fetch receipt: %w", err)
	}

	if receipt.Status != ethTypes.ReceiptStatusSuccessful {
		return failed("transaction reverted"), nil
	}

	if expectedSender != "" {
		tx, isPending, err := client.TransactionByHash(ctx, hash)
		if err != nil {
			return Result{}, fmt.Errorf("failed to fetch transaction: %w", err)
		}
		if isPending {
			return pending(), nil
		}

		sender, err := ethTypes.Sender(ethTypes.LatestSignerForChainID(new(big.Int).SetUint64(chainID)), tx)
		if err != nil {
			return Result{}, fmt.Errorf("failed to recover sender: %w", err)
		}
		if !strings.EqualFold(sender.Hex(), expectedSender) {
			return failed(fmt.Sprintf("sender %s does not match expected sender", sender.Hex())), nil
		}
	}

	return Result{OK: true, Finality: LevelConfirmed}, nil
}
