package gateway

import (
	"fmt"
	"sync"

	"github.com/ppiankov/proofgate/internal/model"
)

// Stats is the queryable snapshot of one circuit's reliability counters.
type Stats struct {
	CircuitID       model.CircuitID `json:"circuit_id"`
	Accepted        uint64          `json:"accepted"`
	Rejected        uint64          `json:"rejected"`
	Streak          uint64          `json:"streak"`
	LastAcceptedSeq uint64          `json:"last_accepted_seq"`
}

// counters are one circuit's reliability counters. Guarded by their own
// mutex so verifications on different circuits never block each other.
// The gate serializes whole submissions for the circuit, from sequence
// draw through ledger apply; the inner mu stays cheap for stat readers.
type counters struct {
	gate         sync.Mutex
	mu           sync.Mutex
	accepted     uint64
	rejected     uint64
	streak       uint64
	lastAccepted uint64
	everAccepted bool
}

// ledger holds reliability counters for every registered circuit. Entries
// are created at registration and never removed; they are mutated only by
// the decision engine in this package.
type ledger struct {
	mu        sync.RWMutex
	byCircuit map[model.CircuitID]*counters
}

func newLedger() *ledger {
	return &ledger{byCircuit: make(map[model.CircuitID]*counters)}
}

func (l *ledger) create(id model.CircuitID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byCircuit[id]; !ok {
		l.byCircuit[id] = &counters{}
	}
}

func (l *ledger) get(id model.CircuitID) *counters {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.byCircuit[id]
}

// restore seeds a circuit's counters from previously recorded state.
func (l *ledger) restore(id model.CircuitID, accepted, rejected, streak, lastAccepted uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byCircuit[id] = &counters{
		accepted:     accepted,
		rejected:     rejected,
		streak:       streak,
		lastAccepted: lastAccepted,
		everAccepted: accepted > 0,
	}
}

// acceptOutcome describes the ledger effects of one acceptance.
type acceptOutcome struct {
	streak      uint64
	gap         bool
	priorStreak uint64
	milestone   bool
}

// applyAccept records an acceptance at seq. Back-to-back acceptances
// (previous acceptance at exactly seq-1, or a first-ever acceptance)
// extend the streak; a sequence gap restarts it at 1 and reports the
// pre-gap count. The milestone flag is set only when the streak lands on
// exactly the milestone count, so it fires once per continuous streak.
func (c *counters) applyAccept(seq uint64) acceptOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out acceptOutcome
	if !c.everAccepted || c.lastAccepted+1 == seq {
		c.streak++
	} else {
		out.gap = true
		out.priorStreak = c.streak
		c.streak = 1
	}

	c.accepted++
	c.lastAccepted = seq
	c.everAccepted = true

	out.streak = c.streak
	out.milestone = c.streak == model.MilestoneStreak
	return out
}

// applyReject records a rejection. Only a verifier fault breaks the
// streak; out-of-policy rejections leave it intact. Returns the prior
// streak length (meaningful only when verifierFault).
func (c *counters) applyReject(verifierFault bool) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rejected++
	if !verifierFault {
		return 0
	}
	prior := c.streak
	c.streak = 0
	return prior
}

func (l *ledger) stats(id model.CircuitID) (Stats, error) {
	c := l.get(id)
	if c == nil {
		return Stats{}, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		CircuitID:       id,
		Accepted:        c.accepted,
		Rejected:        c.rejected,
		Streak:          c.streak,
		LastAcceptedSeq: c.lastAccepted,
	}, nil
}
