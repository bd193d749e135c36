// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package aggregator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/solbridge-labs/solbridge/metrics"
	"github.com/solbridge-labs/solbridge/protocol"
	"github.com/solbridge-labs/solbridge/types"
)

const (
	// bounded top-N to cap response size
	MAX_ROUTES = 10

	DEFAULT_PROVIDER_TIMEOUT = time.Second * 10
	RETRY_ATTEMPTS           = 2
	RETRY_BACKOFF            = time.Millisecond * 500
)

// Aggregator fans a quote request out to every configured provider adapter
// concurrently, merges the survivors and ranks them. One provider's failure
// never cancels the others.
type Aggregator struct {
	registry *protocol.Registry
	composer *Composer
	metrics  *metrics.BridgeMetrics
	timeout  time.Duration
}

func New(registry *protocol.Registry, composer *Composer, m *metrics.BridgeMetrics, timeout time.Duration) *Aggregator {
	if timeout == 0 {
		timeout = DEFAULT_PROVIDER_TIMEOUT
	}
	return &Aggregator{
		registry: registry,
		composer: composer,
		metrics:  m,
		timeout:  timeout,
	}
}

// GetAllQuotes returns ranked routes plus provider-tagged error strings for
// adapters that failed. Zero configured providers is a configuration error,
// not an empty result.
func (a *Aggregator) GetAllQuotes(ctx context.Context, req *types.QuoteRequest) ([]types.Route, []string) {
	a.metrics.QuoteRequested(ctx)

	providers := a.registry.Configured()
	if len(providers) == 0 {
		return nil, []string{"no bridge providers configured: set provider credentials to enable quoting"}
	}

	type result struct {
		provider string
		routes   []types.Route
		err      error
	}

	results := make([]result, len(providers))
	var wg conc.WaitGroup
	for i, p := range providers {
		i, p := i, p
		wg.Go(func() {
			routes, err := a.quote(ctx, p, req)
			results[i] = result{provider: p.Name(), routes: routes, err: err}
		})
	}
	wg.Wait()

	merged := make([]types.Route, 0)
	errs := make([]string, 0)
	for _, r := range results {
		if r.err != nil {
			// providers are expected to no-op for chains they don't serve
			if errors.Is(r.err, types.ErrUnsupportedChain) {
				continue
			}
			a.metrics.ProviderFailed(ctx, r.provider)
			log.Warn().Str("provider", r.provider).Msgf("quote failed: %s", r.err)
			errs = append(errs, fmt.Sprintf("%s: %s", r.provider, r.err))
			continue
		}
		merged = append(merged, r.routes...)
	}

	if a.composer != nil {
		merged = a.composer.Compose(ctx, merged, req)
	}

	sortRoutes(merged)
	if len(merged) > MAX_ROUTES {
		merged = merged[:MAX_ROUTES]
	}
	return merged, errs
}

// quote calls one adapter with a per-call timeout and a small bounded retry.
// The caller's own cancellation is never retried.
func (a *Aggregator) quote(ctx context.Context, p protocol.Provider, req *types.QuoteRequest) ([]types.Route, error) {
	var lastErr error
	for attempt := 0; attempt < RETRY_ATTEMPTS; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(RETRY_BACKOFF):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		routes, err := p.GetQuotes(callCtx, req)
		cancel()
		if err == nil {
			return validRoutes(p.Name(), routes)
		}

		lastErr = err
		if errors.Is(err, types.ErrUnsupportedChain) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// validRoutes drops adapter output that fails canonical-shape validation.
func validRoutes(provider string, routes []types.Route) ([]types.Route, error) {
	for i := range routes {
		if err := routes[i].Validate(); err != nil {
			return nil, types.WrapError(types.CodeProvider, fmt.Sprintf("provider '%s' returned a malformed route", provider), err)
		}
	}
	return routes, nil
}

// sortRoutes orders by output amount descending with ties broken by summed
// fees ascending. The tie-break is contractual; insertion order never leaks
// into the result for comparable routes.
func sortRoutes(routes []types.Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		return compareRoutes(&routes[i], &routes[j]) < 0
	})
}

func compareRoutes(a, b *types.Route) int {
	aOut, aOK := new(big.Int).SetString(a.OutputAmount, 10)
	bOut, bOK := new(big.Int).SetString(b.OutputAmount, 10)
	switch {
	case aOK && bOK:
		if cmp := aOut.Cmp(bOut); cmp != 0 {
			// higher output first
			return -cmp
		}
	case aOK:
		return -1
	case bOK:
		return 1
	}

	return totalFees(a).Cmp(totalFees(b))
}

// totalFees sums parseable fee amounts; a fee that fails to parse leaves the
// total unmodified rather than aborting the comparison.
func totalFees(r *types.Route) *big.Int {
	total := new(big.Int)
	for _, fee := range r.Fees {
		amount, ok := new(big.Int).SetString(fee.Amount, 10)
		if !ok {
			continue
		}
		total.Add(total, amount)
	}
	return total
}
