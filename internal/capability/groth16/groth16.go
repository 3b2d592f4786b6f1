// Package groth16 adapts a gnark Groth16 verifying key to the proofgate
// capability contract. The adapter owns deserialization of the verifying
// key (once, at construction) and of each submitted proof; the gateway
// stays ignorant of curves and proof systems.
package groth16

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"

	"github.com/ppiankov/proofgate/internal/model"
)

// curves maps config-facing curve names to gnark curve IDs.
var curves = map[string]ecc.ID{
	"bn254":     ecc.BN254,
	"bls12-381": ecc.BLS12_381,
	"bls12-377": ecc.BLS12_377,
	"bw6-761":   ecc.BW6_761,
}

// Verifier verifies Groth16 proofs against a fixed verifying key.
type Verifier struct {
	curve       ecc.ID
	vk          groth16.VerifyingKey
	fingerprint model.Fingerprint
}

// New builds a Verifier from raw verifying-key bytes (gnark's canonical
// serialization) for the named curve.
func New(curveName string, vkBytes []byte) (*Verifier, error) {
	curve, ok := curves[curveName]
	if !ok {
		return nil, fmt.Errorf("groth16: unknown curve %q", curveName)
	}

	vk := groth16.NewVerifyingKey(curve)
	if _, err := vk.ReadFrom(bytes.NewReader(vkBytes)); err != nil {
		return nil, fmt.Errorf("groth16: deserialize verifying key: %w", err)
	}

	return &Verifier{
		curve:       curve,
		vk:          vk,
		fingerprint: model.FingerprintOf(vkBytes),
	}, nil
}

// Load builds a Verifier from a verifying-key file.
func Load(curveName, vkPath string) (*Verifier, error) {
	raw, err := os.ReadFile(vkPath)
	if err != nil {
		return nil, fmt.Errorf("groth16: read verifying key: %w", err)
	}
	return New(curveName, raw)
}

// Fingerprint returns the fingerprint of the verifying key this verifier
// was built from. Registration should use exactly this value.
func (v *Verifier) Fingerprint() model.Fingerprint {
	return v.fingerprint
}

// Verify implements capability.Verifier. A malformed proof or witness is a
// clean rejection, not an error escaping the capability boundary.
func (v *Verifier) Verify(_ context.Context, inputs model.PublicInputs, proof model.Proof) (bool, error) {
	p := groth16.NewProof(v.curve)
	if _, err := p.ReadFrom(bytes.NewReader(proof)); err != nil {
		return false, nil
	}

	pub, err := v.publicWitness(inputs)
	if err != nil {
		return false, nil
	}

	if err := groth16.Verify(p, v.vk, pub); err != nil {
		return false, nil
	}
	return true, nil
}

func (v *Verifier) publicWitness(inputs model.PublicInputs) (witness.Witness, error) {
	w, err := witness.New(v.curve.ScalarField())
	if err != nil {
		return nil, err
	}

	values := make(chan any, len(inputs))
	for _, in := range inputs {
		values <- in
	}
	close(values)

	if err := w.Fill(len(inputs), 0, values); err != nil {
		return nil, err
	}
	return w, nil
}
