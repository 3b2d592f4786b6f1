// Package capability defines the pluggable per-circuit verification
// boundary. A circuit's verifier is an external, opaque capability: the
// gateway only ever learns "valid" or "invalid" from it, and any abnormal
// termination inside the capability is contained here, never propagated.
package capability

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/proofgate/internal/model"
)

// Verifier is the single-method contract a circuit implementation
// satisfies. Verify must be deterministic for a given (inputs, proof)
// pair. An error return is treated as a rejection by the caller.
type Verifier interface {
	Verify(ctx context.Context, inputs model.PublicInputs, proof model.Proof) (bool, error)
}

// ErrPanic is returned by Invoke when the capability panicked.
var ErrPanic = errors.New("verifier panicked")

// ErrDeadline is returned by Invoke when the capability exceeded the
// verification deadline. Fail-closed: a slow verifier is a rejecting
// verifier.
var ErrDeadline = errors.New("verifier deadline exceeded")

// DefaultDeadline bounds a single capability invocation unless the host
// configures otherwise.
const DefaultDeadline = 30 * time.Second

// Invoke runs a verifier with panic containment and a deadline. It never
// panics and never blocks past the deadline: the capability call runs in
// its own goroutine, and an overrun is reported as ErrDeadline while the
// stray goroutine is abandoned.
//
// The returned bool is authoritative only when err is nil.
func Invoke(ctx context.Context, v Verifier, inputs model.PublicInputs, proof model.Proof, deadline time.Duration) (valid bool, err error) {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	type outcome struct {
		valid bool
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: ErrPanic}
			}
		}()
		ok, verr := v.Verify(ctx, inputs, proof)
		done <- outcome{valid: ok, err: verr}
	}()

	select {
	case out := <-done:
		return out.valid, out.err
	case <-ctx.Done():
		return false, ErrDeadline
	}
}
