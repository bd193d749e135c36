// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/solbridge-labs/solbridge/auth"
	"github.com/solbridge-labs/solbridge/finality"
	"github.com/solbridge-labs/solbridge/metrics"
	"github.com/solbridge-labs/solbridge/policy"
	"github.com/solbridge-labs/solbridge/protocol"
	"github.com/solbridge-labs/solbridge/types"
)

const DEFAULT_STEP_TX_TIMEOUT = time.Second * 15

type Providers interface {
	Provider(name string) (protocol.Provider, error)
}

type Authenticator interface {
	IssueChallenge(b auth.SessionBinding, audience string) (*auth.Challenge, error)
	Verify(p *auth.Proof, b auth.SessionBinding, audience string) error
}

type FinalityVerifier interface {
	Verify(ctx context.Context, kind types.ChainKind, chainID uint64, chainTag string, txHashOrSig string, expectedSender string) (finality.Result, error)
	AutoReconcilable(kind types.ChainKind) bool
}

// SwapTxBuilder builds the transaction for a composed destination-swap step
// from the quote payload stored on the step at composition time.
type SwapTxBuilder interface {
	SwapTx(ctx context.Context, quote json.RawMessage, userAddress string) (*types.TxRequest, error)
}

// CreateRequest pairs the original quote request with the route the client
// selected from the aggregated quotes.
type CreateRequest struct {
	Request types.QuoteRequest `json:"request"`
	Route   types.Route        `json:"route"`
}

// StatusReport is a client-side step status transition.
type StatusReport struct {
	Status  StepStatus `json:"status"`
	TxHash  string     `json:"txHashOrSig,omitempty"`
	Message string     `json:"message,omitempty"`
	Proof   auth.Proof `json:"proof"`
}

// Manager owns the session lifecycle. All mutation of one session happens
// under that session's lock, so concurrent step reports serialize and the
// first submitted transaction hash wins.
type Manager struct {
	store    *Store
	provider Providers
	swapper  SwapTxBuilder
	policy   *policy.Policy
	auth     Authenticator
	verifier FinalityVerifier
	metrics  *metrics.BridgeMetrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	stepTxTimeout time.Duration
}

func NewManager(
	store *Store,
	provider Providers,
	swapper SwapTxBuilder,
	p *policy.Policy,
	authenticator Authenticator,
	verifier FinalityVerifier,
	m *metrics.BridgeMetrics,
	stepTxTimeout time.Duration,
) *Manager {
	if stepTxTimeout == 0 {
		stepTxTimeout = DEFAULT_STEP_TX_TIMEOUT
	}
	return &Manager{
		store:         store,
		provider:      provider,
		swapper:       swapper,
		policy:        p,
		auth:          authenticator,
		verifier:      verifier,
		metrics:       m,
		locks:         make(map[string]*sync.Mutex),
		stepTxTimeout: stepTxTimeout,
	}
}

// lock acquires the per-session mutex, creating it on first use.
func (m *Manager) lock(sessionID string) func() {
	m.mu.Lock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[sessionID] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (m *Manager) releaseLock(sessionID string) {
	m.mu.Lock()
	delete(m.locks, sessionID)
	m.mu.Unlock()
}

// CreateSession validates the selected route against current policy, snapshots
// it together with the server-derived execution context, and issues the auth
// challenge the client has to sign before executing any step.
func (m *Manager) CreateSession(ctx context.Context, req *CreateRequest, audience string) (*Session, *auth.Challenge, error) {
	if err := req.Request.Validate(); err != nil {
		return nil, nil, err
	}
	if err := req.Route.Validate(); err != nil {
		return nil, nil, err
	}
	if !req.Route.Executable() {
		return nil, nil, types.NewError(types.CodeConflict, fmt.Sprintf("route from provider '%s' requires manual action and cannot be executed", req.Route.Provider))
	}
	if err := m.policy.CheckRoute(req.Route.Steps); err != nil {
		return nil, nil, err
	}

	steps := make([]Step, len(req.Route.Steps))
	for i, rs := range req.Route.Steps {
		steps[i] = Step{
			Index:       i,
			Kind:        rs.Kind,
			ChainID:     rs.ChainID,
			Description: rs.Description,
			Provider:    rs.Provider,
			Metadata:    rs.Metadata,
			Status:      StepIdle,
		}
	}

	sess := &Session{
		ID:                 uuid.NewString(),
		SourceAddress:      req.Request.SourceAddress,
		DestinationAddress: req.Request.DestinationAddress,
		Provider:           req.Route.Provider,
		RouteID:            req.Route.RouteID,
		Route:              req.Route,
		Context:            types.NewExecutionContext(&req.Request),
		Status:             StatusQuoted,
		Steps:              steps,
		CreatedAt:          time.Now().UTC(),
	}

	challenge, err := m.auth.IssueChallenge(sess.Binding(), audience)
	if err != nil {
		return nil, nil, types.WrapError(types.CodeInternal, "failed to issue session challenge", err)
	}
	if err := m.store.SaveSession(sess); err != nil {
		return nil, nil, types.WrapError(types.CodeInternal, "failed to persist session", err)
	}

	log.Info().Str("session", sess.ID).Str("provider", sess.Provider).Msgf("session created with %d steps", len(steps))
	return sess, challenge, nil
}

func (m *Manager) GetSession(id string) (*Session, error) {
	return m.store.GetSession(id)
}

// RequestStepTransaction rebuilds the unsigned transaction for a step from
// the session's stored execution context. The step enters signing only after
// the provider call succeeds; a request that never produced a transaction
// leaves the step untouched.
func (m *Manager) RequestStepTransaction(
	ctx context.Context,
	sessionID string,
	stepIndex int,
	providerName string,
	routeID string,
	proof *auth.Proof,
	audience string,
) (*types.TxRequest, error) {
	defer m.lock(sessionID)()

	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := m.auth.Verify(proof, sess.Binding(), audience); err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		return nil, types.NewError(types.CodeConflict, fmt.Sprintf("session %s is already %s", sess.ID, sess.Status))
	}
	if providerName != sess.Provider || routeID != sess.RouteID {
		return nil, types.NewError(types.CodeConflict, "provider or route does not match session")
	}

	step, err := sess.Step(stepIndex)
	if err != nil {
		return nil, err
	}
	if step.Status != StepSigning && !step.Status.CanTransition(StepSigning) {
		return nil, types.NewError(types.CodeConflict, fmt.Sprintf("step %d is %s and cannot be signed", stepIndex, step.Status))
	}
	if err := m.policy.CheckKind(step.Kind); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, m.stepTxTimeout)
	defer cancel()
	tx, err := m.buildStepTx(callCtx, sess, step, stepIndex)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, types.NewError(types.CodeProvider, fmt.Sprintf("provider '%s' returned no transaction for step %d", stepProvider(sess, step), stepIndex))
	}
	if err := tx.Validate(); err != nil {
		return nil, types.WrapError(types.CodeProvider, fmt.Sprintf("provider '%s' returned a malformed transaction", stepProvider(sess, step)), err)
	}

	step.Status = StepSigning
	if err := m.store.SaveSession(sess); err != nil {
		return nil, types.WrapError(types.CodeInternal, "failed to persist session", err)
	}
	return tx, nil
}

// buildStepTx resolves the adapter owning the step. Composed steps carry
// their own provider tag and an opaque payload from composition; everything
// else is rebuilt by the route's provider from the stored execution context.
func (m *Manager) buildStepTx(ctx context.Context, sess *Session, step *Step, stepIndex int) (*types.TxRequest, error) {
	if step.Provider != "" && step.Provider != sess.Provider {
		if m.swapper == nil {
			return nil, types.NewError(types.CodeConfiguration, fmt.Sprintf("no adapter configured for step provider '%s'", step.Provider))
		}
		tx, err := m.swapper.SwapTx(ctx, step.Metadata, sess.DestinationAddress)
		if err != nil {
			return nil, types.WrapError(types.CodeProvider, fmt.Sprintf("provider '%s' failed to build step transaction", step.Provider), err)
		}
		return tx, nil
	}

	p, err := m.provider.Provider(sess.Provider)
	if err != nil {
		return nil, err
	}
	tx, err := p.GetStepTx(ctx, sess.RouteID, stepIndex, sess.Context)
	if err != nil {
		return nil, types.WrapError(types.CodeProvider, fmt.Sprintf("provider '%s' failed to build step transaction", sess.Provider), err)
	}
	return tx, nil
}

func stepProvider(sess *Session, step *Step) string {
	if step.Provider != "" {
		return step.Provider
	}
	return sess.Provider
}

// ReportStepStatus applies a client-reported step transition. Duplicate
// reports of the current state are acknowledged without mutation; a submitted
// report carrying a different transaction hash than the recorded one is
// rejected.
func (m *Manager) ReportStepStatus(ctx context.Context, sessionID string, stepIndex int, report *StatusReport, audience string) (*Session, error) {
	defer m.lock(sessionID)()

	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := m.auth.Verify(&report.Proof, sess.Binding(), audience); err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		return nil, types.NewError(types.CodeConflict, fmt.Sprintf("session %s is already %s", sess.ID, sess.Status))
	}

	step, err := sess.Step(stepIndex)
	if err != nil {
		return nil, err
	}
	if err := m.policy.CheckKind(step.Kind); err != nil {
		return nil, err
	}

	switch report.Status {
	case StepSubmitted, StepConfirmed, StepCompleted, StepFailed:
	default:
		return nil, types.NewError(types.CodeValidation, fmt.Sprintf("status '%s' cannot be reported", report.Status))
	}

	if report.Status == StepSubmitted {
		if report.TxHash == "" {
			return nil, types.NewError(types.CodeValidation, "txHashOrSig is required when reporting submitted")
		}
		if step.TxHash != "" && step.TxHash != report.TxHash {
			return nil, types.NewError(types.CodeConflict, fmt.Sprintf("step %d already submitted with a different transaction", stepIndex))
		}
	}
	if report.Status == StepFailed && step.Status == StepIdle {
		return nil, types.NewError(types.CodeConflict, fmt.Sprintf("step %d was never submitted and cannot fail", stepIndex))
	}

	// duplicate of the current state is an idempotent acknowledgement
	if report.Status == step.Status {
		return sess, nil
	}
	if !step.Status.CanTransition(report.Status) {
		return nil, types.NewError(types.CodeConflict, fmt.Sprintf("step %d cannot move from %s to %s", stepIndex, step.Status, report.Status))
	}

	step.Status = report.Status
	if report.Status == StepSubmitted {
		step.TxHash = report.TxHash
	}

	if report.Status == StepFailed {
		sess.Status = StatusFailed
		sess.ErrorMessage = fmt.Sprintf("step %d failed", stepIndex)
		if report.Message != "" {
			sess.ErrorMessage = fmt.Sprintf("step %d failed: %s", stepIndex, report.Message)
		}
		m.metrics.SessionFailed(ctx)
		log.Info().Str("session", sess.ID).Msg(sess.ErrorMessage)
	} else {
		sess.refresh()
		if sess.Status == StatusCompleted {
			m.metrics.SessionCompleted(ctx)
			log.Info().Str("session", sess.ID).Msg("session completed")
		}
	}

	if err := m.store.SaveSession(sess); err != nil {
		return nil, types.WrapError(types.CodeInternal, "failed to persist session", err)
	}
	if sess.Status.Terminal() {
		m.releaseLock(sess.ID)
	}
	return sess, nil
}

// ReconcileFinality checks submitted steps against their chains and promotes
// the confirmed ones. Pending and failed lookups leave the step untouched;
// only a client report or a successful verification moves state forward.
func (m *Manager) ReconcileFinality(ctx context.Context, sessionID string) error {
	defer m.lock(sessionID)()

	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return err
	}
	if sess.Status.Terminal() {
		return nil
	}

	changed := false
	for i := range sess.Steps {
		step := &sess.Steps[i]
		if step.Status != StepSubmitted || step.TxHash == "" {
			continue
		}
		if !m.verifier.AutoReconcilable(step.Kind) {
			continue
		}

		expectedSender := ""
		if step.Kind == types.ChainKindEVM {
			expectedSender = sess.SourceAddress
		}
		res, err := m.verifier.Verify(ctx, step.Kind, step.ChainID, sess.Context.SourceChain, step.TxHash, expectedSender)
		if err != nil {
			log.Warn().Str("session", sess.ID).Int("step", step.Index).Msgf("finality check failed: %s", err)
			continue
		}
		if !res.OK {
			if res.Reason != "" {
				log.Warn().Str("session", sess.ID).Int("step", step.Index).Msgf("transaction not successful: %s", res.Reason)
			}
			continue
		}

		step.Status = StepConfirmed
		changed = true
		log.Info().Str("session", sess.ID).Int("step", step.Index).Str("finality", string(res.Finality)).Msg("step confirmed on chain")
	}

	if !changed {
		return nil
	}

	sess.refresh()
	if sess.Status == StatusCompleted {
		m.metrics.SessionCompleted(ctx)
		log.Info().Str("session", sess.ID).Msg("session completed")
	}
	if err := m.store.SaveSession(sess); err != nil {
		return types.WrapError(types.CodeInternal, "failed to persist session", err)
	}
	if sess.Status.Terminal() {
		m.releaseLock(sess.ID)
	}
	return nil
}

// ActiveSessionIDs lists sessions the reconcile job should visit.
func (m *Manager) ActiveSessionIDs() ([]string, error) {
	return m.store.ActiveSessionIDs()
}
