// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solbridge-labs/solbridge/types"
)

// Policy is the administrative switch disabling execution for specific chain
// kinds. It is evaluated point-in-time: a kind disabled after a session was
// created still blocks that session's step reports.
type Policy struct {
	disabled map[types.ChainKind]struct{}
}

func New(disabledKinds []string) *Policy {
	disabled := make(map[types.ChainKind]struct{})
	for _, k := range disabledKinds {
		disabled[types.ChainKind(strings.ToLower(strings.TrimSpace(k)))] = struct{}{}
	}
	return &Policy{disabled: disabled}
}

func (p *Policy) IsDisabled(kind types.ChainKind) bool {
	_, ok := p.disabled[kind]
	return ok
}

// BlockedKinds returns the deduplicated, sorted list of disabled chain kinds
// appearing in the given steps. An empty result means the route may execute.
func (p *Policy) BlockedKinds(steps []types.RouteStep) []types.ChainKind {
	seen := make(map[types.ChainKind]struct{})
	blocked := make([]types.ChainKind, 0)
	for _, step := range steps {
		if !p.IsDisabled(step.Kind) {
			continue
		}
		if _, ok := seen[step.Kind]; ok {
			continue
		}
		seen[step.Kind] = struct{}{}
		blocked = append(blocked, step.Kind)
	}
	sort.Slice(blocked, func(i, j int) bool { return blocked[i] < blocked[j] })
	return blocked
}

// CheckRoute rejects the whole route if any step's kind is disabled,
// reporting every offending kind in one error.
func (p *Policy) CheckRoute(steps []types.RouteStep) error {
	blocked := p.BlockedKinds(steps)
	if len(blocked) == 0 {
		return nil
	}
	kinds := make([]string, len(blocked))
	for i, k := range blocked {
		kinds[i] = string(k)
	}
	return types.NewError(types.CodePolicy, fmt.Sprintf("execution disabled for chain kinds: %s", strings.Join(kinds, ", ")))
}

// CheckKind rejects a single chain kind. Used on step status reports.
func (p *Policy) CheckKind(kind types.ChainKind) error {
	if !p.IsDisabled(kind) {
		return nil
	}
	return types.NewError(types.CodePolicy, fmt.Sprintf("execution disabled for chain kinds: %s", kind))
}
