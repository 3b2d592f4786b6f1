package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/proofgate/internal/model"
)

// ReplayFilter holds filtering criteria for event log replay.
type ReplayFilter struct {
	CircuitID string // empty = all circuits
	Kind      Kind   // empty = all kinds
	FromSeq   uint64 // 0 = no lower bound
	ToSeq     uint64 // 0 = no upper bound
}

// ReplaySummary holds decision counts for a replayed slice of the log.
type ReplaySummary struct {
	Total      int    `json:"total"`
	Accepted   int    `json:"accepted"`
	Rejected   int    `json:"rejected"`
	Resets     int    `json:"resets"`
	Milestones int    `json:"milestones"`
	Admin      int    `json:"admin"`
	FirstSeq   uint64 `json:"first_seq"`
	LastSeq    uint64 `json:"last_seq"`
}

// ReplayResult holds filtered entries and their summary.
type ReplayResult struct {
	Entries []Entry       `json:"entries"`
	Summary ReplaySummary `json:"summary"`
}

// Replay reads the event log and returns entries matching the filter.
func Replay(path string, filter ReplayFilter) (*ReplayResult, error) {
	entries, err := readAll(path)
	if err != nil {
		return nil, err
	}

	result := &ReplayResult{}
	for _, entry := range entries {
		if filter.CircuitID != "" && entry.CircuitID != filter.CircuitID {
			continue
		}
		if filter.Kind != "" && entry.Kind != filter.Kind {
			continue
		}
		if filter.FromSeq != 0 && entry.Seq < filter.FromSeq {
			continue
		}
		if filter.ToSeq != 0 && entry.Seq > filter.ToSeq {
			continue
		}
		result.Entries = append(result.Entries, entry)
		updateSummary(&result.Summary, entry)
	}
	return result, nil
}

func updateSummary(s *ReplaySummary, entry Entry) {
	s.Total++
	switch entry.Kind {
	case KindProofAccepted:
		s.Accepted++
	case KindProofRejected:
		s.Rejected++
	case KindStreakReset:
		s.Resets++
	case KindStreakMilestone:
		s.Milestones++
	case KindCircuitRegistered, KindCircuitDisabled, KindContainmentUpdated:
		s.Admin++
	}
	if s.FirstSeq == 0 || entry.Seq < s.FirstSeq {
		s.FirstSeq = entry.Seq
	}
	if entry.Seq > s.LastSeq {
		s.LastSeq = entry.Seq
	}
}

// CircuitProjection is the per-circuit state reconstructed from events
// alone. A healthy gateway's live counters match this exactly.
type CircuitProjection struct {
	CircuitID    string `json:"circuit_id"`
	Fingerprint  string `json:"fingerprint"`
	MinLevel     int    `json:"min_level"`
	Enabled      bool   `json:"enabled"`
	RegisteredAt uint64 `json:"registered_at"`
	Accepted     uint64 `json:"accepted"`
	Rejected     uint64 `json:"rejected"`
	Streak       uint64 `json:"streak"`
	LastAccepted uint64 `json:"last_accepted_seq"`
	Milestones   int    `json:"milestones"`
}

// Rebuild reconstructs all circuit projections and the final containment
// level by folding the event log from the beginning. This is the recovery
// path: if in-memory state is ever lost, the trail is sufficient to
// rebuild it.
func Rebuild(path string) (map[string]*CircuitProjection, int, error) {
	entries, err := readAll(path)
	if err != nil {
		return nil, 0, err
	}
	return RebuildFrom(entries)
}

// RebuildFrom folds already-loaded entries into projections. The final
// containment level is 0 when the log contains no containment events.
func RebuildFrom(entries []Entry) (map[string]*CircuitProjection, int, error) {
	circuits := make(map[string]*CircuitProjection)
	level := 0

	for i, entry := range entries {
		switch entry.Kind {
		case KindCircuitRegistered:
			if _, dup := circuits[entry.CircuitID]; dup {
				return nil, 0, fmt.Errorf("audit: duplicate registration for %s at entry %d", entry.CircuitID, i+1)
			}
			circuits[entry.CircuitID] = &CircuitProjection{
				CircuitID:    entry.CircuitID,
				Fingerprint:  entry.Fingerprint,
				MinLevel:     entry.MinLevel,
				Enabled:      true,
				RegisteredAt: entry.Seq,
			}

		case KindCircuitDisabled:
			if c := circuits[entry.CircuitID]; c != nil {
				c.Enabled = false
			}

		case KindContainmentUpdated:
			level = entry.NewLevel

		case KindProofAccepted:
			c := circuits[entry.CircuitID]
			if c == nil {
				return nil, 0, fmt.Errorf("audit: acceptance for unregistered circuit %s at entry %d", entry.CircuitID, i+1)
			}
			c.Accepted++
			c.Streak = entry.Streak
			c.LastAccepted = entry.Seq

		case KindProofRejected:
			// Rejections at the pre-verifier checks can reference
			// unregistered circuits; those still count nowhere.
			if c := circuits[entry.CircuitID]; c != nil {
				c.Rejected++
				if model.Reason(entry.Reason) == model.ReasonVerifierRejected {
					c.Streak = 0
				}
			}

		case KindStreakMilestone:
			if c := circuits[entry.CircuitID]; c != nil {
				c.Milestones++
			}
		}
	}

	return circuits, level, nil
}

func readAll(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	return entries, nil
}
