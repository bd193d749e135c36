// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package aggregator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/solbridge-labs/solbridge/protocol/jupiter"
	"github.com/solbridge-labs/solbridge/types"
)

type SwapQuoter interface {
	IsConfigured() bool
	QuoteSwap(ctx context.Context, inputMint string, outputMint string, amount string, slippageBps int) (*jupiter.SwapQuote, error)
}

// Composer appends a destination-side Solana swap step to routes whose
// bridged output token differs from the requested one. Composition failures
// degrade to a route warning, never to a dropped route.
type Composer struct {
	quoter  SwapQuoter
	enabled bool
}

func NewComposer(quoter SwapQuoter, enabled bool) *Composer {
	return &Composer{
		quoter:  quoter,
		enabled: enabled,
	}
}

func (c *Composer) Compose(ctx context.Context, routes []types.Route, req *types.QuoteRequest) []types.Route {
	if !c.enabled || c.quoter == nil || !c.quoter.IsConfigured() {
		return routes
	}

	for i := range routes {
		route := &routes[i]
		if !route.Executable() {
			continue
		}
		if route.OutputToken == req.ToToken {
			continue
		}
		if hasProviderStep(route, jupiter.ProviderTag) {
			continue
		}

		quote, err := c.quoter.QuoteSwap(ctx, route.OutputToken, req.ToToken, route.OutputAmount, slippageBps(req.Slippage))
		if err != nil {
			log.Warn().Str("provider", route.Provider).Msgf("destination swap quote failed: %s", err)
			route.Warnings = append(route.Warnings, fmt.Sprintf("destination swap to %s unavailable, route delivers %s", req.ToToken, route.OutputToken))
			continue
		}

		route.Steps = append(route.Steps, types.RouteStep{
			Kind:        types.ChainKindSolana,
			Description: fmt.Sprintf("swap %s to %s via jupiter", route.OutputToken, req.ToToken),
			Provider:    jupiter.ProviderTag,
			Metadata:    quote.Raw,
		})
		route.OutputToken = req.ToToken
		route.OutputAmount = quote.OutAmount
	}
	return routes
}

func hasProviderStep(route *types.Route, provider string) bool {
	for _, step := range route.Steps {
		if step.Provider == provider {
			return true
		}
	}
	return false
}

func slippageBps(slippagePercent float64) int {
	return int(slippagePercent * 100)
}
