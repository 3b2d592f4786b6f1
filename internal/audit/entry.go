// Package audit provides the append-only decision-event trail. Every
// registration, disablement, containment change and verification outcome
// becomes one immutable JSONL entry, chained by SHA-256 so tampering is
// detectable, and replayable so the in-memory projections can be rebuilt
// from events alone.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
)

// Kind names one decision-event type in the trail.
type Kind string

const (
	KindCircuitRegistered  Kind = "circuit_registered"
	KindCircuitDisabled    Kind = "circuit_disabled"
	KindContainmentUpdated Kind = "containment_updated"
	KindProofAccepted      Kind = "proof_accepted"
	KindProofRejected      Kind = "proof_rejected"
	KindStreakReset        Kind = "streak_reset"
	KindStreakMilestone    Kind = "streak_milestone"
)

// Entry is one line in the hash-chained JSONL event log. All fields are
// scalars or strings (no maps) to guarantee deterministic json.Marshal
// field order for reproducible hashing. Unused fields are omitted per
// kind.
type Entry struct {
	Timestamp   string `json:"ts"`
	Seq         uint64 `json:"seq"`
	Kind        Kind   `json:"kind"`
	CircuitID   string `json:"circuit_id,omitempty"`
	Caller      string `json:"caller,omitempty"`
	Reason      string `json:"reason,omitempty"`
	InputsHash  string `json:"inputs_hash,omitempty"`
	Streak      uint64 `json:"streak,omitempty"`
	PriorStreak uint64 `json:"prior_streak,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	MinLevel    int    `json:"min_level,omitempty"`
	OldLevel    int    `json:"old_level,omitempty"`
	NewLevel    int    `json:"new_level,omitempty"`
	PrevHash    string `json:"prev_hash"`
}

// Sink receives decision events. The gateway writes through this
// interface so hosts can choose a file log, an in-memory log, or both.
type Sink interface {
	Record(Entry) error
}

// HashLine computes the chain hash of one serialized entry line.
func HashLine(line []byte) string {
	sum := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(sum[:])
}
