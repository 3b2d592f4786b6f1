// Package registry owns the mapping from circuit id to its registration
// record. The verifying-key fingerprint on a record is immutable by
// construction: the record type exposes no setter, and the registry never
// replaces a record in place. A compromised key is retired by disabling
// the circuit and registering a new id — there is no other path.
package registry

import (
	"fmt"
	"sync"

	"github.com/ppiankov/proofgate/internal/capability"
	"github.com/ppiankov/proofgate/internal/model"
)

// Record is one registered circuit. All fields are set at registration;
// only the enabled flag ever changes, and only from true to false.
type Record struct {
	id           model.CircuitID
	verifier     capability.Verifier
	fingerprint  model.Fingerprint
	minLevel     int
	enabled      bool
	registeredAt uint64
}

// ID returns the circuit id.
func (r *Record) ID() model.CircuitID { return r.id }

// Verifier returns the circuit's verification capability.
func (r *Record) Verifier() capability.Verifier { return r.verifier }

// Fingerprint returns the verifying-key fingerprint fixed at registration.
func (r *Record) Fingerprint() model.Fingerprint { return r.fingerprint }

// MinLevel returns the minimum containment level required to use the
// circuit.
func (r *Record) MinLevel() int { return r.minLevel }

// Enabled reports whether the circuit may still be used.
func (r *Record) Enabled() bool { return r.enabled }

// RegisteredAt returns the sequence position the circuit was registered
// at.
func (r *Record) RegisteredAt() uint64 { return r.registeredAt }

// Info is the queryable snapshot of a record, safe to hand to callers.
type Info struct {
	CircuitID    model.CircuitID   `json:"circuit_id"`
	Fingerprint  model.Fingerprint `json:"fingerprint"`
	MinLevel     int               `json:"min_level"`
	Enabled      bool              `json:"enabled"`
	RegisteredAt uint64            `json:"registered_at"`
}

// Registry holds all circuit records for the process lifetime. Disabled
// records are kept, never deleted, preserving historical auditability.
type Registry struct {
	mu       sync.RWMutex
	circuits map[model.CircuitID]*Record
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{circuits: make(map[model.CircuitID]*Record)}
}

// Register creates a record for a new circuit id. The id must be unused —
// including by disabled circuits — so a key can never be silently
// substituted under an existing name.
func (r *Registry) Register(id model.CircuitID, verifier capability.Verifier, fp model.Fingerprint, minLevel int, seq uint64) (*Record, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: circuit id %q", model.ErrInvalidParameters, id)
	}
	if verifier == nil {
		return nil, fmt.Errorf("%w: nil verify capability", model.ErrInvalidParameters)
	}
	if !fp.Valid() {
		return nil, fmt.Errorf("%w: malformed or zero fingerprint", model.ErrInvalidParameters)
	}
	if minLevel < model.MinLevel || minLevel > model.MaxLevel {
		return nil, fmt.Errorf("%w: min containment level %d outside [%d,%d]",
			model.ErrInvalidParameters, minLevel, model.MinLevel, model.MaxLevel)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.circuits[id]; exists {
		return nil, fmt.Errorf("%w: %s", model.ErrDuplicateCircuit, id)
	}

	rec := &Record{
		id:           id,
		verifier:     verifier,
		fingerprint:  fp,
		minLevel:     minLevel,
		enabled:      true,
		registeredAt: seq,
	}
	r.circuits[id] = rec
	return rec, nil
}

// Disable permanently retires a circuit. The flip is one-way; calling
// Disable twice reports ErrAlreadyDisabled rather than silently
// succeeding, so an operator always learns the circuit was already gone.
func (r *Registry) Disable(id model.CircuitID) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.circuits[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	if !rec.enabled {
		return nil, fmt.Errorf("%w: %s", model.ErrAlreadyDisabled, id)
	}
	rec.enabled = false
	return rec, nil
}

// Get returns the record for an id, or nil if unregistered.
func (r *Registry) Get(id model.CircuitID) *Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.circuits[id]
}

// Info returns the queryable snapshot for an id.
func (r *Registry) Info(id model.CircuitID) (Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.circuits[id]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return Info{
		CircuitID:    rec.id,
		Fingerprint:  rec.fingerprint,
		MinLevel:     rec.minLevel,
		Enabled:      rec.enabled,
		RegisteredAt: rec.registeredAt,
	}, nil
}

// IDs returns all registered circuit ids, enabled or not.
func (r *Registry) IDs() []model.CircuitID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]model.CircuitID, 0, len(r.circuits))
	for id := range r.circuits {
		ids = append(ids, id)
	}
	return ids
}
