package finality_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/suite"

	"github.com/solbridge-labs/solbridge/finality"
)

const testSignature = "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7"

type fakeSolanaClient struct {
	status *rpc.SignatureStatusesResult
	err    error
}

func (c *fakeSolanaClient) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &rpc.GetSignatureStatusesResult{
		Value: []*rpc.SignatureStatusesResult{c.status},
	}, nil
}

type SolanaVerifierTestSuite struct {
	suite.Suite

	client *fakeSolanaClient
}

func TestRunSolanaVerifierTestSuite(t *testing.T) {
	suite.Run(t, new(SolanaVerifierTestSuite))
}

func (s *SolanaVerifierTestSuite) SetupTest() {
	s.client = &fakeSolanaClient{}
}

func (s *SolanaVerifierTestSuite) verifier() *finality.SolanaVerifier {
	return finality.NewSolanaVerifierWithClient(s.client)
}

func (s *SolanaVerifierTestSuite) Test_Verify_Finalized() {
	s.client.status = &rpc.SignatureStatusesResult{
		ConfirmationStatus: rpc.ConfirmationStatusFinalized,
	}

	result, err := s.verifier().Verify(context.Background(), testSignature)

	s.Nil(err)
	s.True(result.OK)
	s.Equal(finality.LevelFinalized, result.Finality)
}

func (s *SolanaVerifierTestSuite) Test_Verify_Confirmed() {
	s.client.status = &rpc.SignatureStatusesResult{
		ConfirmationStatus: rpc.ConfirmationStatusConfirmed,
	}

	result, err := s.verifier().Verify(context.Background(), testSignature)

	s.Nil(err)
	s.True(result.OK)
	s.Equal(finality.LevelConfirmed, result.Finality)
}

func (s *SolanaVerifierTestSuite) Test_Verify_ConfirmationCountFallback() {
	confirmations := uint64(3)
	s.client.status = &rpc.SignatureStatusesResult{
		Confirmations: &confirmations,
	}

	result, err := s.verifier().Verify(context.Background(), testSignature)

	s.Nil(err)
	s.True(result.OK)
}

func (s *SolanaVerifierTestSuite) Test_Verify_UnknownSignatureIsPending() {
	s.client.status = nil

	result, err := s.verifier().Verify(context.Background(), testSignature)

	s.Nil(err)
	s.False(result.OK)
	s.Equal("", result.Reason)
}

func (s *SolanaVerifierTestSuite) Test_Verify_OnChainError() {
	s.client.status = &rpc.SignatureStatusesResult{
		Err: map[string]interface{}{"InstructionError": []interface{}{}},
	}

	result, err := s.verifier().Verify(context.Background(), testSignature)

	s.Nil(err)
	s.False(result.OK)
	s.NotEqual("", result.Reason)
}

func (s *SolanaVerifierTestSuite) Test_Verify_RPCError() {
	s.client.err = errors.New("rpc unavailable")

	_, err := s.verifier().Verify(context.Background(), testSignature)

	s.NotNil(err)
}

func (s *SolanaVerifierTestSuite) Test_Verify_MalformedSignature() {
	_, err := s.verifier().Verify(context.Background(), "not-a-signature")

	s.NotNil(err)
}
