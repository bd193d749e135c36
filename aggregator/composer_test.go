package aggregator_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/solbridge-labs/solbridge/aggregator"
	"github.com/solbridge-labs/solbridge/protocol/jupiter"
	"github.com/solbridge-labs/solbridge/types"
)

type fakeSwapQuoter struct {
	configured bool
	quote      *jupiter.SwapQuote
	err        error

	calls int
}

func (q *fakeSwapQuoter) IsConfigured() bool {
	return q.configured
}

func (q *fakeSwapQuoter) QuoteSwap(ctx context.Context, inputMint string, outputMint string, amount string, slippageBps int) (*jupiter.SwapQuote, error) {
	q.calls++
	if q.err != nil {
		return nil, q.err
	}
	return q.quote, nil
}

type ComposerTestSuite struct {
	suite.Suite

	quoter  *fakeSwapQuoter
	request *types.QuoteRequest
}

func TestRunComposerTestSuite(t *testing.T) {
	suite.Run(t, new(ComposerTestSuite))
}

func (s *ComposerTestSuite) SetupTest() {
	s.quoter = &fakeSwapQuoter{
		configured: true,
		quote: &jupiter.SwapQuote{
			InputMint:  "So11111111111111111111111111111111111111112",
			OutputMint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			InAmount:   "1000000",
			OutAmount:  "995000",
			Raw:        json.RawMessage(`{"outAmount":"995000"}`),
		},
	}
	s.request = &types.QuoteRequest{
		ToToken:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Slippage: 3,
	}
}

func (s *ComposerTestSuite) bridgedRoute(outputToken string) types.Route {
	return types.Route{
		Provider:     "lifi",
		RouteID:      "r1",
		Steps:        []types.RouteStep{{Kind: types.ChainKindEVM, ChainID: 1, Description: "bridge"}},
		OutputToken:  outputToken,
		OutputAmount: "1000000",
	}
}

func (s *ComposerTestSuite) Test_Compose_AppendsSwapStep() {
	composer := aggregator.NewComposer(s.quoter, true)

	routes := composer.Compose(context.Background(), []types.Route{
		s.bridgedRoute("So11111111111111111111111111111111111111112"),
	}, s.request)

	s.Len(routes, 1)
	s.Len(routes[0].Steps, 2)
	s.Equal(types.ChainKindSolana, routes[0].Steps[1].Kind)
	s.Equal(jupiter.ProviderTag, routes[0].Steps[1].Provider)
	s.Equal(s.request.ToToken, routes[0].OutputToken)
	s.Equal("995000", routes[0].OutputAmount)
}

func (s *ComposerTestSuite) Test_Compose_SkipsMatchingOutputToken() {
	composer := aggregator.NewComposer(s.quoter, true)

	routes := composer.Compose(context.Background(), []types.Route{
		s.bridgedRoute(s.request.ToToken),
	}, s.request)

	s.Len(routes[0].Steps, 1)
	s.Equal(0, s.quoter.calls)
}

func (s *ComposerTestSuite) Test_Compose_QuoteFailureDegradesToWarning() {
	s.quoter.err = errors.New("no route")
	composer := aggregator.NewComposer(s.quoter, true)

	routes := composer.Compose(context.Background(), []types.Route{
		s.bridgedRoute("So11111111111111111111111111111111111111112"),
	}, s.request)

	s.Len(routes, 1)
	s.Len(routes[0].Steps, 1)
	s.Len(routes[0].Warnings, 1)
	s.Equal("So11111111111111111111111111111111111111112", routes[0].OutputToken)
}

func (s *ComposerTestSuite) Test_Compose_DisabledDoesNothing() {
	composer := aggregator.NewComposer(s.quoter, false)

	routes := composer.Compose(context.Background(), []types.Route{
		s.bridgedRoute("So11111111111111111111111111111111111111112"),
	}, s.request)

	s.Len(routes[0].Steps, 1)
	s.Equal(0, s.quoter.calls)
}

func (s *ComposerTestSuite) Test_Compose_SkipsActionRoutes() {
	composer := aggregator.NewComposer(s.quoter, true)

	routes := composer.Compose(context.Background(), []types.Route{
		{
			Provider: "native",
			Action:   &types.RouteAction{URL: "https://bridge.example"},
		},
	}, s.request)

	s.Len(routes, 1)
	s.Equal(0, s.quoter.calls)
}

func (s *ComposerTestSuite) Test_Compose_SkipsRoutesAlreadyEndingInSwap() {
	route := s.bridgedRoute("So11111111111111111111111111111111111111112")
	route.Steps = append(route.Steps, types.RouteStep{
		Kind:     types.ChainKindSolana,
		Provider: jupiter.ProviderTag,
	})
	composer := aggregator.NewComposer(s.quoter, true)

	routes := composer.Compose(context.Background(), []types.Route{route}, s.request)

	s.Len(routes[0].Steps, 2)
	s.Equal(0, s.quoter.calls)
}
