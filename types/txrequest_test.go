package types_test

import (
	"testing"

	"github.com/solbridge-labs/solbridge/types"
)

func Test_TxRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tx      types.TxRequest
		wantErr bool
	}{
		{
			name: "evm variant matches kind",
			tx: types.TxRequest{
				Kind: types.ChainKindEVM,
				EVM:  &types.EVMTx{ChainID: 1, To: "0x5c7BCd6E7De5423a257D81B442095A1a6ced35C6"},
			},
		},
		{
			name: "solana variant matches kind",
			tx: types.TxRequest{
				Kind:   types.ChainKindSolana,
				Solana: &types.SolanaTx{RPC: "https://api.mainnet-beta.solana.com", SerializedTxBase64: "AQID"},
			},
		},
		{
			name:    "no variant set",
			tx:      types.TxRequest{Kind: types.ChainKindEVM},
			wantErr: true,
		},
		{
			name: "variant does not match kind",
			tx: types.TxRequest{
				Kind:   types.ChainKindEVM,
				Solana: &types.SolanaTx{RPC: "rpc", SerializedTxBase64: "AQID"},
			},
			wantErr: true,
		},
		{
			name: "two variants set",
			tx: types.TxRequest{
				Kind:    types.ChainKindEVM,
				EVM:     &types.EVMTx{ChainID: 1, To: "0xabc"},
				Bitcoin: &types.BitcoinTx{PsbtBase64: "cHNidP8"},
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tx.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
