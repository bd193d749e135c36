// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/solbridge-labs/solbridge/cache"
	"github.com/solbridge-labs/solbridge/types"
)

type Scheme string

const (
	SchemeEVM    Scheme = "evm"
	SchemeSolana Scheme = "solana"
)

// Challenge is the message a client has to sign to prove control of the
// wallet bound to a session. The message is fully deterministic given the
// session fields, the request host and the issued nonce, so verification can
// recompute it from server-side state alone.
type Challenge struct {
	Scheme  Scheme `json:"scheme"`
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
}

// Proof is the client's answer to a challenge.
type Proof struct {
	Scheme    Scheme `json:"scheme"`
	Signature string `json:"signature"`
}

// SessionBinding is the subset of session fields the challenge message is
// bound to. Values always come from the stored session, never from the
// request body.
type SessionBinding struct {
	SessionID          string
	SourceAddress      string
	DestinationAddress string
	Provider           string
	RouteID            string
}

type Authenticator struct {
	challenges *cache.ChallengeCache
}

func NewAuthenticator(challenges *cache.ChallengeCache) *Authenticator {
	return &Authenticator{
		challenges: challenges,
	}
}

// IssueChallenge creates a fresh challenge for the session, replacing any
// outstanding one.
func (a *Authenticator) IssueChallenge(b SessionBinding, audience string) (*Challenge, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate challenge nonce: %w", err)
	}
	nonce := hex.EncodeToString(buf)

	a.challenges.Put(b.SessionID, nonce)
	return &Challenge{
		Scheme:  SchemeEVM,
		Nonce:   nonce,
		Message: challengeMessage(b, audience, nonce),
	}, nil
}

// Verify checks a proof against the stored session binding and the audience
// of the current request. Every failure surfaces as the same generic error so
// callers cannot probe which field mismatched.
func (a *Authenticator) Verify(p *Proof, b SessionBinding, audience string) error {
	authErr := types.NewError(types.CodeAuth, "session authentication failed")
	if p == nil {
		return authErr
	}

	nonce, err := a.challenges.Nonce(b.SessionID)
	if err != nil {
		log.Debug().Str("session", b.SessionID).Msgf("challenge lookup failed: %s", err)
		return authErr
	}
	message := challengeMessage(b, audience, nonce)

	switch p.Scheme {
	case SchemeEVM:
		err = verifyEVM(message, p.Signature, b.SourceAddress)
	case SchemeSolana:
		err = verifySolana(message, p.Signature, b.DestinationAddress)
	default:
		err = fmt.Errorf("unsupported scheme '%s'", p.Scheme)
	}
	if err != nil {
		log.Debug().Str("session", b.SessionID).Msgf("proof verification failed: %s", err)
		return authErr
	}

	return nil
}

func challengeMessage(b SessionBinding, audience string, nonce string) string {
	return strings.Join([]string{
		"solbridge wants you to authorize bridge session execution",
		"",
		fmt.Sprintf("Session: %s", b.SessionID),
		fmt.Sprintf("Source: %s", b.SourceAddress),
		fmt.Sprintf("Destination: %s", b.DestinationAddress),
		fmt.Sprintf("Provider: %s", b.Provider),
		fmt.Sprintf("Route: %s", b.RouteID),
		fmt.Sprintf("Audience: %s", audience),
		fmt.Sprintf("Nonce: %s", nonce),
	}, "\n")
}

// verifyEVM recovers the signer of an EIP-191 personal-sign signature and
// compares it to the expected address case-insensitively.
func verifyEVM(message string, signature string, address string) error {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("malformed signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("signature length %d invalid", len(sig))
	}
	// wallets return V as 27/28, go-ethereum expects 0/1
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return fmt.Errorf("failed to recover signer: %w", err)
	}

	recovered := crypto.PubkeyToAddress(*pub)
	if !strings.EqualFold(recovered.Hex(), address) {
		return fmt.Errorf("signer %s does not match expected address", recovered.Hex())
	}
	return nil
}

func verifySolana(message string, signature string, address string) error {
	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return fmt.Errorf("malformed address: %w", err)
	}
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("malformed signature: %w", err)
	}

	if !ed25519.Verify(ed25519.PublicKey(pub.Bytes()), []byte(message), sig[:]) {
		return fmt.Errorf("ed25519 verification failed")
	}
	return nil
}
