// Package daemon implements the proofgate inbox/outbox file gateway.
// Submissions arrive as JSON files in the inbox directory, are routed
// through the verification gateway, and decisions are written to the
// outbox directory. Administrative actions travel the same path as their
// own job kinds, so the trail of who asked for what survives in the
// filesystem as well as the audit log.
package daemon

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/proofgate/internal/model"
)

// Job kinds the daemon accepts.
const (
	JobVerify   = "verify"
	JobSetLevel = "set_level"
	JobDisable  = "disable"
)

// validJobKinds is the set of accepted kind values.
var validJobKinds = map[string]bool{
	JobVerify:   true,
	JobSetLevel: true,
	JobDisable:  true,
}

// Outcome status values written to the outbox.
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// validJobID matches alphanumeric characters, dashes, and underscores
// only.
var validJobID = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Submission is one unit of work dropped into the inbox.
type Submission struct {
	ID           string   `json:"id"`
	Kind         string   `json:"kind"`
	Caller       string   `json:"caller"`
	CircuitID    string   `json:"circuit_id,omitempty"`
	PublicInputs []string `json:"public_inputs,omitempty"`
	Proof        string   `json:"proof,omitempty"` // base64
	NewLevel     int      `json:"new_level,omitempty"`
}

// Outcome is written to the outbox after processing a submission.
type Outcome struct {
	ID          string        `json:"id"`
	Kind        string        `json:"kind"`
	Status      string        `json:"status"`
	Result      *model.Result `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
	CompletedAt time.Time     `json:"completed_at"`
}

// ValidateSubmission checks structural validity before dispatch.
func ValidateSubmission(s *Submission) error {
	if s.ID == "" {
		return fmt.Errorf("missing id")
	}
	if !validJobID.MatchString(s.ID) {
		return fmt.Errorf("invalid id %q", s.ID)
	}
	if !validJobKinds[s.Kind] {
		return fmt.Errorf("unsupported kind %q", s.Kind)
	}
	if s.Caller == "" {
		return fmt.Errorf("missing caller")
	}
	switch s.Kind {
	case JobVerify, JobDisable:
		if s.CircuitID == "" {
			return fmt.Errorf("missing circuit_id")
		}
	}
	return nil
}

// DecodeInputs parses the submission's public inputs. Each entry is a
// decimal integer or a 0x-prefixed hex string.
func (s *Submission) DecodeInputs() (model.PublicInputs, error) {
	inputs := make(model.PublicInputs, 0, len(s.PublicInputs))
	for i, raw := range s.PublicInputs {
		v := new(big.Int)
		var ok bool
		if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
			_, ok = v.SetString(raw[2:], 16)
		} else {
			_, ok = v.SetString(raw, 10)
		}
		if !ok {
			return nil, fmt.Errorf("public_inputs[%d]: cannot parse %q", i, raw)
		}
		inputs = append(inputs, v)
	}
	return inputs, nil
}

// DecodeProof parses the submission's base64 proof bytes.
func (s *Submission) DecodeProof() (model.Proof, error) {
	if s.Proof == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s.Proof)
	if err != nil {
		return nil, fmt.Errorf("proof: invalid base64: %w", err)
	}
	return model.Proof(raw), nil
}
