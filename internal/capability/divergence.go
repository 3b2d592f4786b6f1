package capability

import (
	"context"
	"math/big"

	"github.com/ppiankov/proofgate/internal/model"
)

// Fixed-point scale used by divergence inputs: 1.0 == 1_000_000.
const ScaleFactor = 1_000_000

// DefaultDivergenceThreshold is 0.07 in fixed-point, the production
// divergence ceiling between a primary metric and its shadow.
const DefaultDivergenceThreshold = 70_000

// Divergence accepts a submission when the absolute difference between the
// first two public inputs (primary and shadow metric, fixed-point) stays
// within the threshold. The proof bytes are not inspected; the inputs are
// the claim.
type Divergence struct {
	Threshold uint64
}

// NewDivergence returns a Divergence verifier, falling back to the default
// threshold when given zero.
func NewDivergence(threshold uint64) *Divergence {
	if threshold == 0 {
		threshold = DefaultDivergenceThreshold
	}
	return &Divergence{Threshold: threshold}
}

// Verify implements Verifier.
func (d *Divergence) Verify(_ context.Context, inputs model.PublicInputs, _ model.Proof) (bool, error) {
	if len(inputs) < 2 || inputs[0] == nil || inputs[1] == nil {
		return false, nil
	}

	diff := new(big.Int).Sub(inputs[0], inputs[1])
	diff.Abs(diff)

	return diff.Cmp(new(big.Int).SetUint64(d.Threshold)) <= 0, nil
}
