package types

import (
	"encoding/json"
	"fmt"
)

// TxRequest is the closed union of unsigned transaction envelopes returned to
// the client for external signing. Exactly one variant matching Kind is set;
// consumers switch exhaustively on Kind.
type TxRequest struct {
	Kind    ChainKind  `json:"kind"`
	EVM     *EVMTx     `json:"evm,omitempty"`
	Solana  *SolanaTx  `json:"solana,omitempty"`
	Bitcoin *BitcoinTx `json:"bitcoin,omitempty"`
	Cosmos  *CosmosTx  `json:"cosmos,omitempty"`
	Ton     *TonTx     `json:"ton,omitempty"`
}

type EVMTx struct {
	ChainID uint64 `json:"chainId"`
	To      string `json:"to"`
	Data    string `json:"data,omitempty"`
	Value   string `json:"value,omitempty"`
}

type SolanaTx struct {
	RPC                string `json:"rpc"`
	SerializedTxBase64 string `json:"serializedTxBase64"`
}

type BitcoinTx struct {
	PsbtBase64   string   `json:"psbtBase64"`
	InputsToSign []uint32 `json:"inputsToSign"`
	ToAddress    string   `json:"toAddress,omitempty"`
	Amount       string   `json:"amount,omitempty"`
	Memo         string   `json:"memo,omitempty"`
}

type CosmosTx struct {
	ChainID  string            `json:"chainId"`
	Messages []json.RawMessage `json:"messages"`
	Fee      json.RawMessage   `json:"fee,omitempty"`
	Memo     string            `json:"memo,omitempty"`
}

type TonTx struct {
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Payload   string `json:"payload,omitempty"`
	StateInit string `json:"stateInit,omitempty"`
}

// Validate checks that the variant matching Kind is present and no other
// variant is set.
func (t *TxRequest) Validate() error {
	set := 0
	var matched bool
	for kind, v := range map[ChainKind]bool{
		ChainKindEVM:     t.EVM != nil,
		ChainKindSolana:  t.Solana != nil,
		ChainKindBitcoin: t.Bitcoin != nil,
		ChainKindCosmos:  t.Cosmos != nil,
		ChainKindTon:     t.Ton != nil,
	} {
		if v {
			set++
			if kind == t.Kind {
				matched = true
			}
		}
	}
	if set != 1 || !matched {
		return fmt.Errorf("tx request variant does not match kind '%s'", t.Kind)
	}
	return nil
}
