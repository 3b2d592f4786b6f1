package proofgate

import (
	"context"
	"math/big"

	"github.com/ppiankov/proofgate/internal/audit"
	"github.com/ppiankov/proofgate/internal/capability"
	"github.com/ppiankov/proofgate/internal/capability/groth16"
	"github.com/ppiankov/proofgate/internal/gateway"
	"github.com/ppiankov/proofgate/internal/model"
	"github.com/ppiankov/proofgate/internal/registry"
	"github.com/ppiankov/proofgate/internal/sequence"
)

// Re-exported types so hosts never import internal packages.
type (
	// Verifier is the per-circuit verification capability contract.
	Verifier = capability.Verifier
	// VerifierFunc adapts a function to the Verifier interface.
	VerifierFunc = capability.Func
	// PublicInputs are the public inputs of one submission.
	PublicInputs = model.PublicInputs
	// Proof is the opaque proof payload of one submission.
	Proof = model.Proof
	// Result is the structured outcome of one submission.
	Result = model.Result
	// Reason classifies rejections.
	Reason = model.Reason
	// Entry is one decision event.
	Entry = audit.Entry
	// CircuitInfo is the registration snapshot of a circuit.
	CircuitInfo = registry.Info
	// CircuitStats are a circuit's reliability counters.
	CircuitStats = gateway.Stats
)

// Rejection reasons, re-exported.
const (
	ReasonCircuitNotFound  = model.ReasonCircuitNotFound
	ReasonCircuitDisabled  = model.ReasonCircuitDisabled
	ReasonContainmentLow   = model.ReasonContainmentLow
	ReasonInvalidInputs    = model.ReasonInvalidInputs
	ReasonVerifierRejected = model.ReasonVerifierRejected
)

// Administrative errors, re-exported.
var (
	ErrUnauthorized      = model.ErrUnauthorized
	ErrDuplicateCircuit  = model.ErrDuplicateCircuit
	ErrNotFound          = model.ErrNotFound
	ErrAlreadyDisabled   = model.ErrAlreadyDisabled
	ErrInvalidParameters = model.ErrInvalidParameters
	ErrInvalidStep       = model.ErrInvalidStep
)

// FingerprintOf computes the fingerprint of raw verifying-key bytes.
func FingerprintOf(vk []byte) string {
	return string(model.FingerprintOf(vk))
}

// NewGroth16Verifier builds a gnark Groth16 verifier from raw
// verifying-key bytes for the named curve ("bn254", "bls12-381",
// "bls12-377", "bw6-761").
func NewGroth16Verifier(curve string, vkBytes []byte) (Verifier, error) {
	return groth16.New(curve, vkBytes)
}

// NewDivergenceVerifier builds the fixed-point divergence verifier with
// the given threshold (0 means the production default).
func NewDivergenceVerifier(threshold uint64) Verifier {
	return capability.NewDivergence(threshold)
}

// Gateway is the in-process verification gateway handle.
type Gateway struct {
	inner  *gateway.Gateway
	admin  string
	caller string
	mem    *audit.Memory
	log    *audit.Log
}

// New creates a Gateway with the given options.
func New(opts ...Option) (*Gateway, error) {
	cfg := gatewayConfig{
		admin:        "governance",
		initialLevel: 4,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.caller == "" {
		cfg.caller = cfg.admin
	}
	if cfg.source == nil {
		cfg.source = sequence.NewCounter(0)
	}

	mem := audit.NewMemory()
	sinks := audit.Tee{mem}

	var log *audit.Log
	if cfg.auditLogPath != "" {
		var err error
		log, err = audit.Open(cfg.auditLogPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, log)
	}
	if cfg.sink != nil {
		sinks = append(sinks, cfg.sink)
	}

	inner, err := gateway.New(gateway.Config{
		AdminCaller:    cfg.admin,
		InitialLevel:   cfg.initialLevel,
		Sequence:       cfg.source,
		Events:         sinks,
		VerifyDeadline: cfg.deadline,
	})
	if err != nil {
		if log != nil {
			log.Close()
		}
		return nil, err
	}

	return &Gateway{
		inner:  inner,
		admin:  cfg.admin,
		caller: cfg.caller,
		mem:    mem,
		log:    log,
	}, nil
}

// Register adds a circuit under the admin identity.
func (g *Gateway) Register(circuitID string, verifier Verifier, fingerprint string, minLevel int) error {
	return g.inner.Register(g.admin, model.CircuitID(circuitID), verifier, model.Fingerprint(fingerprint), minLevel)
}

// Disable permanently retires a circuit.
func (g *Gateway) Disable(circuitID string) error {
	return g.inner.Disable(g.admin, model.CircuitID(circuitID))
}

// SetLevel moves the containment level by exactly one step.
func (g *Gateway) SetLevel(newLevel int) error {
	return g.inner.SetLevel(g.admin, newLevel)
}

// Verify routes one submission through the canonical decision path.
func (g *Gateway) Verify(ctx context.Context, circuitID string, inputs []*big.Int, proof []byte) Result {
	return g.inner.VerifyAndRecord(ctx, g.caller, model.CircuitID(circuitID), model.PublicInputs(inputs), model.Proof(proof))
}

// Info returns the registration snapshot for a circuit.
func (g *Gateway) Info(circuitID string) (CircuitInfo, error) {
	return g.inner.CircuitInfo(model.CircuitID(circuitID))
}

// Stats returns the reliability counters for a circuit.
func (g *Gateway) Stats(circuitID string) (CircuitStats, error) {
	return g.inner.CircuitStats(model.CircuitID(circuitID))
}

// Closed reports whether a circuit's streak has reached the milestone.
func (g *Gateway) Closed(circuitID string) bool {
	return g.inner.IsCircuitClosed(model.CircuitID(circuitID))
}

// Level returns the current containment level.
func (g *Gateway) Level() int {
	return g.inner.Level()
}

// Events returns all decision events emitted so far, in order.
func (g *Gateway) Events() []Entry {
	return g.mem.Entries()
}

// Close releases the file-backed audit log, if any.
func (g *Gateway) Close() error {
	if g.log != nil {
		return g.log.Close()
	}
	return nil
}
