package capability

import (
	"context"

	"github.com/ppiankov/proofgate/internal/model"
)

// Static is a verifier with a fixed outcome. Useful for wiring tests and
// staging circuits where the cryptographic backend is not yet deployed.
type Static struct {
	Valid bool
	Err   error
}

// Verify implements Verifier.
func (s Static) Verify(context.Context, model.PublicInputs, model.Proof) (bool, error) {
	return s.Valid, s.Err
}

// AlwaysAccept returns a verifier that accepts everything.
func AlwaysAccept() Static { return Static{Valid: true} }

// AlwaysReject returns a verifier that rejects everything.
func AlwaysReject() Static { return Static{} }

// Func adapts a plain function to the Verifier interface.
type Func func(ctx context.Context, inputs model.PublicInputs, proof model.Proof) (bool, error)

// Verify implements Verifier.
func (f Func) Verify(ctx context.Context, inputs model.PublicInputs, proof model.Proof) (bool, error) {
	return f(ctx, inputs, proof)
}
