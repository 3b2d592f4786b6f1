// Package gateway is the canonical choke-point for proof verification.
// Every submission passes through VerifyAndRecord; no other path produces
// an accept/reject decision or touches the reliability ledger. The
// evaluation order is fixed, every outcome carries a distinct reason, and
// every outcome is recorded before it is returned.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/proofgate/internal/audit"
	"github.com/ppiankov/proofgate/internal/capability"
	"github.com/ppiankov/proofgate/internal/containment"
	"github.com/ppiankov/proofgate/internal/logger"
	"github.com/ppiankov/proofgate/internal/model"
	"github.com/ppiankov/proofgate/internal/registry"
	"github.com/ppiankov/proofgate/internal/sequence"
)

// Config holds gateway construction parameters.
type Config struct {
	// AdminCaller is the single trusted identity for administrative
	// calls. Required.
	AdminCaller string
	// InitialLevel is the containment level at construction.
	InitialLevel int
	// Sequence supplies strictly increasing positions, one per processed
	// step. Required.
	Sequence sequence.Source
	// Events receives the decision-event trail. Required.
	Events audit.Sink
	// VerifyDeadline bounds one capability invocation. Zero means
	// capability.DefaultDeadline.
	VerifyDeadline time.Duration
}

// Gateway evaluates proof submissions against the circuit registry and
// containment state, and owns the reliability ledger those decisions
// update.
type Gateway struct {
	admin    string
	reg      *registry.Registry
	level    *containment.Controller
	ledger   *ledger
	events   audit.Sink
	seq      sequence.Source
	deadline time.Duration
}

// New creates a gateway.
func New(cfg Config) (*Gateway, error) {
	if cfg.AdminCaller == "" {
		return nil, fmt.Errorf("%w: admin caller is required", model.ErrInvalidParameters)
	}
	if cfg.Sequence == nil {
		return nil, fmt.Errorf("%w: sequence source is required", model.ErrInvalidParameters)
	}
	if cfg.Events == nil {
		return nil, fmt.Errorf("%w: event sink is required", model.ErrInvalidParameters)
	}

	level, err := containment.New(cfg.InitialLevel)
	if err != nil {
		return nil, err
	}

	return &Gateway{
		admin:    cfg.AdminCaller,
		reg:      registry.New(),
		level:    level,
		ledger:   newLedger(),
		events:   cfg.Events,
		seq:      cfg.Sequence,
		deadline: cfg.VerifyDeadline,
	}, nil
}

func (g *Gateway) authorize(caller string) error {
	if caller != g.admin {
		return fmt.Errorf("%w: %q", model.ErrUnauthorized, caller)
	}
	return nil
}

// Register adds a circuit. Administrative; fails without state change or
// event on any precondition violation.
func (g *Gateway) Register(caller string, id model.CircuitID, verifier capability.Verifier, fp model.Fingerprint, minLevel int) error {
	if err := g.authorize(caller); err != nil {
		return err
	}

	seq := g.seq.Next()
	rec, err := g.reg.Register(id, verifier, fp, minLevel, seq)
	if err != nil {
		return err
	}
	g.ledger.create(id)

	g.emit(audit.Entry{
		Seq:         seq,
		Kind:        audit.KindCircuitRegistered,
		CircuitID:   string(rec.ID()),
		Caller:      caller,
		Fingerprint: string(rec.Fingerprint()),
		MinLevel:    rec.MinLevel(),
	})
	return nil
}

// RestoreCircuit rehydrates one circuit from a projection rebuilt out of
// the audit trail. Unlike Register it consumes no sequence position and
// emits no event: the trail already records the registration this state
// came from, and recording it again would corrupt the replay.
func (g *Gateway) RestoreCircuit(proj *audit.CircuitProjection, verifier capability.Verifier) error {
	if proj == nil {
		return fmt.Errorf("%w: nil projection", model.ErrInvalidParameters)
	}

	_, err := g.reg.Register(model.CircuitID(proj.CircuitID), verifier,
		model.Fingerprint(proj.Fingerprint), proj.MinLevel, proj.RegisteredAt)
	if err != nil {
		return err
	}
	if !proj.Enabled {
		if _, err := g.reg.Disable(model.CircuitID(proj.CircuitID)); err != nil {
			return err
		}
	}

	g.ledger.restore(model.CircuitID(proj.CircuitID),
		proj.Accepted, proj.Rejected, proj.Streak, proj.LastAccepted)
	return nil
}

// Disable retires a circuit permanently. Administrative.
func (g *Gateway) Disable(caller string, id model.CircuitID) error {
	if err := g.authorize(caller); err != nil {
		return err
	}

	rec, err := g.reg.Disable(id)
	if err != nil {
		return err
	}

	g.emit(audit.Entry{
		Seq:       g.seq.Next(),
		Kind:      audit.KindCircuitDisabled,
		CircuitID: string(rec.ID()),
		Caller:    caller,
	})
	return nil
}

// SetLevel moves the containment level by exactly one step.
// Administrative.
func (g *Gateway) SetLevel(caller string, newLevel int) error {
	if err := g.authorize(caller); err != nil {
		return err
	}

	old, err := g.level.Set(newLevel)
	if err != nil {
		return err
	}

	g.emit(audit.Entry{
		Seq:      g.seq.Next(),
		Kind:     audit.KindContainmentUpdated,
		Caller:   caller,
		OldLevel: old,
		NewLevel: newLevel,
	})
	return nil
}

// VerifyAndRecord evaluates one proof submission. Checks run in fixed
// order — existence, enablement, containment, input shape, cryptographic
// verification — short-circuiting at the first failure, each with its
// own reason. The outcome is always a recorded Result, never an error:
// a capability that errors, panics or overruns its deadline is a
// rejection, not a crash.
func (g *Gateway) VerifyAndRecord(ctx context.Context, caller string, id model.CircuitID, inputs model.PublicInputs, proof model.Proof) model.Result {
	inputsHash := inputs.Hash()

	rec := g.reg.Get(id)
	if rec == nil {
		return g.reject(g.seq.Next(), caller, id, inputsHash, model.ReasonCircuitNotFound, nil)
	}

	cnt := g.ledger.get(id)

	// One circuit's submissions are serialized end to end: the position is
	// drawn and the ledger applied under the same gate, so concurrent
	// submissions can never apply out of draw order and fake a gap.
	// Submissions for different circuits proceed in parallel.
	cnt.gate.Lock()
	defer cnt.gate.Unlock()

	seq := g.seq.Next()

	if !rec.Enabled() {
		return g.reject(seq, caller, id, inputsHash, model.ReasonCircuitDisabled, cnt)
	}

	if g.level.Level() < rec.MinLevel() {
		return g.reject(seq, caller, id, inputsHash, model.ReasonContainmentLow, cnt)
	}

	if len(proof) == 0 || len(inputs) == 0 || !inputs.Valid() {
		return g.reject(seq, caller, id, inputsHash, model.ReasonInvalidInputs, cnt)
	}

	valid, err := capability.Invoke(ctx, rec.Verifier(), inputs, proof, g.deadline)
	if err != nil || !valid {
		if err != nil {
			logger.Logger().Warn().
				Str("circuit", string(id)).
				Err(err).
				Msg("verifier capability fault, failing closed")
		}
		return g.reject(seq, caller, id, inputsHash, model.ReasonVerifierRejected, cnt)
	}

	return g.accept(seq, caller, id, inputsHash, cnt)
}

// reject records and emits one rejection. Counters exist for every
// registered circuit; a not-found rejection has none to update, but is
// still recorded in the trail.
func (g *Gateway) reject(seq uint64, caller string, id model.CircuitID, inputsHash string, reason model.Reason, cnt *counters) model.Result {
	if cnt != nil {
		verifierFault := reason == model.ReasonVerifierRejected
		prior := cnt.applyReject(verifierFault)
		if verifierFault && prior > 0 {
			g.emit(audit.Entry{
				Seq:         seq,
				Kind:        audit.KindStreakReset,
				CircuitID:   string(id),
				PriorStreak: prior,
			})
		}
	}

	g.emit(audit.Entry{
		Seq:        seq,
		Kind:       audit.KindProofRejected,
		CircuitID:  string(id),
		Caller:     caller,
		Reason:     string(reason),
		InputsHash: inputsHash,
	})

	return model.Result{
		CircuitID:  id,
		Decision:   model.Reject,
		Reason:     reason,
		InputsHash: inputsHash,
		Seq:        seq,
	}
}

func (g *Gateway) accept(seq uint64, caller string, id model.CircuitID, inputsHash string, cnt *counters) model.Result {
	out := cnt.applyAccept(seq)

	if out.gap && out.priorStreak > 0 {
		g.emit(audit.Entry{
			Seq:         seq,
			Kind:        audit.KindStreakReset,
			CircuitID:   string(id),
			PriorStreak: out.priorStreak,
		})
	}

	g.emit(audit.Entry{
		Seq:        seq,
		Kind:       audit.KindProofAccepted,
		CircuitID:  string(id),
		Caller:     caller,
		InputsHash: inputsHash,
		Streak:     out.streak,
	})

	if out.milestone {
		g.emit(audit.Entry{
			Seq:       seq,
			Kind:      audit.KindStreakMilestone,
			CircuitID: string(id),
			Streak:    out.streak,
		})
	}

	return model.Result{
		CircuitID:  id,
		Decision:   model.Accept,
		InputsHash: inputsHash,
		Seq:        seq,
		Streak:     out.streak,
	}
}

// emit appends one event to the trail. An event that cannot be written is
// logged loudly; the decision itself has already been applied and cannot
// be rolled back, so the trail failure must be operationally visible.
func (g *Gateway) emit(entry audit.Entry) {
	if err := g.events.Record(entry); err != nil {
		logger.Logger().Error().
			Uint64("seq", entry.Seq).
			Str("kind", string(entry.Kind)).
			Err(err).
			Msg("failed to record decision event")
	}
}

// CircuitInfo returns the registration snapshot for a circuit.
func (g *Gateway) CircuitInfo(id model.CircuitID) (registry.Info, error) {
	return g.reg.Info(id)
}

// CircuitStats returns the reliability counters for a circuit.
func (g *Gateway) CircuitStats(id model.CircuitID) (Stats, error) {
	return g.ledger.stats(id)
}

// IsCircuitClosed reports whether the circuit's current streak has
// reached the milestone count.
func (g *Gateway) IsCircuitClosed(id model.CircuitID) bool {
	st, err := g.ledger.stats(id)
	if err != nil {
		return false
	}
	return st.Streak >= model.MilestoneStreak
}

// Level returns the current containment level.
func (g *Gateway) Level() int {
	return g.level.Level()
}

// CircuitIDs returns all registered circuit ids.
func (g *Gateway) CircuitIDs() []model.CircuitID {
	return g.reg.IDs()
}
