package aggregator_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/solbridge-labs/solbridge/aggregator"
	"github.com/solbridge-labs/solbridge/protocol"
	mock_protocol "github.com/solbridge-labs/solbridge/protocol/mock"
	"github.com/solbridge-labs/solbridge/types"
)

func route(provider string, id string, outputAmount string, feeAmount string) types.Route {
	r := types.Route{
		Provider:     provider,
		RouteID:      id,
		Steps:        []types.RouteStep{{Kind: types.ChainKindEVM, ChainID: 1, Description: "bridge"}},
		OutputToken:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		OutputAmount: outputAmount,
	}
	if feeAmount != "" {
		r.Fees = []types.Fee{{Token: "USDC", Amount: feeAmount}}
	}
	return r
}

type AggregatorTestSuite struct {
	suite.Suite

	first  *mock_protocol.MockProvider
	second *mock_protocol.MockProvider

	request *types.QuoteRequest
}

func TestRunAggregatorTestSuite(t *testing.T) {
	suite.Run(t, new(AggregatorTestSuite))
}

func (s *AggregatorTestSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())

	s.first = mock_protocol.NewMockProvider(ctrl)
	s.first.EXPECT().Name().Return("first").AnyTimes()
	s.first.EXPECT().IsConfigured().Return(true).AnyTimes()

	s.second = mock_protocol.NewMockProvider(ctrl)
	s.second.EXPECT().Name().Return("second").AnyTimes()
	s.second.EXPECT().IsConfigured().Return(true).AnyTimes()

	s.request = &types.QuoteRequest{
		SourceChain:        "1",
		SourceKind:         types.ChainKindEVM,
		FromToken:          "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Amount:             "1000000",
		ToToken:            "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		SourceAddress:      "0x5c7BCd6E7De5423a257D81B442095A1a6ced35C6",
		DestinationAddress: "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T",
		Slippage:           3,
	}
}

func (s *AggregatorTestSuite) aggregator() *aggregator.Aggregator {
	registry := protocol.NewRegistry(s.first, s.second)
	return aggregator.New(registry, nil, nil, 0)
}

func (s *AggregatorTestSuite) Test_GetAllQuotes_MergesAndRanks() {
	s.first.EXPECT().GetQuotes(gomock.Any(), s.request).Return([]types.Route{
		route("first", "a", "900", ""),
	}, nil)
	s.second.EXPECT().GetQuotes(gomock.Any(), s.request).Return([]types.Route{
		route("second", "b", "1000", ""),
	}, nil)

	routes, errs := s.aggregator().GetAllQuotes(context.Background(), s.request)

	s.Equal([]string{}, errs)
	s.Len(routes, 2)
	s.Equal("b", routes[0].RouteID)
	s.Equal("a", routes[1].RouteID)
}

func (s *AggregatorTestSuite) Test_GetAllQuotes_TieBrokenByFees() {
	s.first.EXPECT().GetQuotes(gomock.Any(), s.request).Return([]types.Route{
		route("first", "expensive", "1000", "500"),
	}, nil)
	s.second.EXPECT().GetQuotes(gomock.Any(), s.request).Return([]types.Route{
		route("second", "cheap", "1000", "100"),
	}, nil)

	routes, _ := s.aggregator().GetAllQuotes(context.Background(), s.request)

	s.Len(routes, 2)
	s.Equal("cheap", routes[0].RouteID)
	s.Equal("expensive", routes[1].RouteID)
}

func (s *AggregatorTestSuite) Test_GetAllQuotes_ProviderFailureIsIsolated() {
	s.first.EXPECT().GetQuotes(gomock.Any(), s.request).Return(nil, errors.New("rate limited")).Times(2)
	s.second.EXPECT().GetQuotes(gomock.Any(), s.request).Return([]types.Route{
		route("second", "b", "1000", ""),
	}, nil)

	routes, errs := s.aggregator().GetAllQuotes(context.Background(), s.request)

	s.Len(routes, 1)
	s.Len(errs, 1)
	s.Contains(errs[0], "first")
}

func (s *AggregatorTestSuite) Test_GetAllQuotes_UnsupportedChainDroppedSilently() {
	s.first.EXPECT().GetQuotes(gomock.Any(), s.request).Return(nil, types.ErrUnsupportedChain)
	s.second.EXPECT().GetQuotes(gomock.Any(), s.request).Return([]types.Route{
		route("second", "b", "1000", ""),
	}, nil)

	routes, errs := s.aggregator().GetAllQuotes(context.Background(), s.request)

	s.Len(routes, 1)
	s.Equal([]string{}, errs)
}

func (s *AggregatorTestSuite) Test_GetAllQuotes_RetriesTransientFailure() {
	gomock.InOrder(
		s.first.EXPECT().GetQuotes(gomock.Any(), s.request).Return(nil, errors.New("timeout")),
		s.first.EXPECT().GetQuotes(gomock.Any(), s.request).Return([]types.Route{
			route("first", "a", "900", ""),
		}, nil),
	)
	s.second.EXPECT().GetQuotes(gomock.Any(), s.request).Return([]types.Route{}, nil)

	routes, errs := s.aggregator().GetAllQuotes(context.Background(), s.request)

	s.Len(routes, 1)
	s.Equal([]string{}, errs)
}

func (s *AggregatorTestSuite) Test_GetAllQuotes_MalformedRouteReported() {
	malformed := route("first", "", "900", "")
	s.first.EXPECT().GetQuotes(gomock.Any(), s.request).Return([]types.Route{malformed}, nil).Times(2)
	s.second.EXPECT().GetQuotes(gomock.Any(), s.request).Return([]types.Route{}, nil)

	routes, errs := s.aggregator().GetAllQuotes(context.Background(), s.request)

	s.Len(routes, 0)
	s.Len(errs, 1)
}

func (s *AggregatorTestSuite) Test_GetAllQuotes_TruncatesToMaxRoutes() {
	many := make([]types.Route, 0, 15)
	for i := 0; i < 15; i++ {
		many = append(many, route("first", fmt.Sprintf("r%d", i), fmt.Sprintf("%d", 1000+i), ""))
	}
	s.first.EXPECT().GetQuotes(gomock.Any(), s.request).Return(many, nil)
	s.second.EXPECT().GetQuotes(gomock.Any(), s.request).Return([]types.Route{}, nil)

	routes, _ := s.aggregator().GetAllQuotes(context.Background(), s.request)

	s.Len(routes, aggregator.MAX_ROUTES)
	// best output first after truncation
	s.Equal("r14", routes[0].RouteID)
}

func (s *AggregatorTestSuite) Test_GetAllQuotes_NoConfiguredProviders() {
	ctrl := gomock.NewController(s.T())
	unconfigured := mock_protocol.NewMockProvider(ctrl)
	unconfigured.EXPECT().Name().Return("unconfigured").AnyTimes()
	unconfigured.EXPECT().IsConfigured().Return(false).AnyTimes()

	registry := protocol.NewRegistry(unconfigured)
	agg := aggregator.New(registry, nil, nil, 0)

	routes, errs := agg.GetAllQuotes(context.Background(), s.request)

	s.Len(routes, 0)
	s.Len(errs, 1)
	s.Contains(errs[0], "no bridge providers configured")
}

func (s *AggregatorTestSuite) Test_GetAllQuotes_UnparseableOutputRanksLast() {
	s.first.EXPECT().GetQuotes(gomock.Any(), s.request).Return([]types.Route{
		route("first", "weird", "unknown", ""),
	}, nil)
	s.second.EXPECT().GetQuotes(gomock.Any(), s.request).Return([]types.Route{
		route("second", "b", "10", ""),
	}, nil)

	routes, _ := s.aggregator().GetAllQuotes(context.Background(), s.request)

	s.Len(routes, 2)
	s.Equal("b", routes[0].RouteID)
	s.Equal("weird", routes[1].RouteID)
}
