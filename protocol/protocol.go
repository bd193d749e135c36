// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package protocol

import (
	"context"
	"fmt"

	"github.com/solbridge-labs/solbridge/types"
)

// Provider is one bridge/swap integration. Adapters normalize vendor quotes
// into the canonical route shape and rebuild unsigned step transactions from
// the session's stored execution context. An adapter returns
// types.ErrUnsupportedChain for chains it does not serve instead of failing.
type Provider interface {
	Name() string
	IsConfigured() bool
	GetQuotes(ctx context.Context, req *types.QuoteRequest) ([]types.Route, error)
	GetStepTx(ctx context.Context, routeID string, stepIndex int, ec types.ExecutionContext) (*types.TxRequest, error)
}

// Registry is the static table of known providers, keyed by name.
// Resolution is a plain map lookup.
type Registry struct {
	providers map[string]Provider
	order     []string
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
	}
	for _, p := range providers {
		if _, ok := r.providers[p.Name()]; ok {
			continue
		}
		r.providers[p.Name()] = p
		r.order = append(r.order, p.Name())
	}
	return r
}

// Configured returns providers with required credentials present, in
// registration order.
func (r *Registry) Configured() []Provider {
	configured := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		if p := r.providers[name]; p.IsConfigured() {
			configured = append(configured, p)
		}
	}
	return configured
}

func (r *Registry) Provider(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, types.NewError(types.CodeNotFound, fmt.Sprintf("unknown provider '%s'", name))
	}
	if !p.IsConfigured() {
		return nil, types.NewError(types.CodeConfiguration, fmt.Sprintf("provider '%s' is not configured", name))
	}
	return p, nil
}
