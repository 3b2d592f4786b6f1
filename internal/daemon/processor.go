package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/proofgate/internal/gateway"
	"github.com/ppiankov/proofgate/internal/logger"
	"github.com/ppiankov/proofgate/internal/model"
)

// Processor routes submission files through the gateway and writes
// outcomes to the outbox.
type Processor struct {
	gw     *gateway.Gateway
	outbox string
}

// NewProcessor creates a processor bound to a gateway and outbox
// directory.
func NewProcessor(gw *gateway.Gateway, outbox string) *Processor {
	return &Processor{gw: gw, outbox: outbox}
}

// Process handles a single submission file through its full lifecycle:
// read → validate → dispatch through the gateway → write outcome to
// outbox → remove the inbox file.
func (p *Processor) Process(ctx context.Context, path string) error {
	// Structural symlink defense: reject symlinks before reading, so an
	// inbox entry can never alias an arbitrary filesystem path.
	fi, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("stat submission: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("rejected symlink: %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read submission: %w", err)
	}

	var sub Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		if werr := p.writeOutcome(failedOutcome(fallbackID(path), "", fmt.Sprintf("invalid JSON: %v", err))); werr != nil {
			return werr
		}
		_ = os.Remove(path)
		return nil
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	outcome := p.execute(ctx, &sub)
	if err := p.writeOutcome(outcome); err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}

	_ = os.Remove(path)
	return nil
}

func (p *Processor) execute(ctx context.Context, sub *Submission) *Outcome {
	if err := ValidateSubmission(sub); err != nil {
		return failedOutcome(sub.ID, sub.Kind, fmt.Sprintf("validation failed: %v", err))
	}

	switch sub.Kind {
	case JobVerify:
		inputs, err := sub.DecodeInputs()
		if err != nil {
			return failedOutcome(sub.ID, sub.Kind, err.Error())
		}
		proof, err := sub.DecodeProof()
		if err != nil {
			return failedOutcome(sub.ID, sub.Kind, err.Error())
		}

		result := p.gw.VerifyAndRecord(ctx, sub.Caller, model.CircuitID(sub.CircuitID), inputs, proof)
		logger.Logger().Info().
			Str("job", sub.ID).
			Str("circuit", sub.CircuitID).
			Str("decision", string(result.Decision)).
			Str("reason", string(result.Reason)).
			Uint64("seq", result.Seq).
			Msg("submission processed")

		return &Outcome{
			ID:          sub.ID,
			Kind:        sub.Kind,
			Status:      StatusDone,
			Result:      &result,
			CompletedAt: time.Now().UTC(),
		}

	case JobSetLevel:
		if err := p.gw.SetLevel(sub.Caller, sub.NewLevel); err != nil {
			return failedOutcome(sub.ID, sub.Kind, err.Error())
		}
		return doneOutcome(sub.ID, sub.Kind)

	case JobDisable:
		if err := p.gw.Disable(sub.Caller, model.CircuitID(sub.CircuitID)); err != nil {
			return failedOutcome(sub.ID, sub.Kind, err.Error())
		}
		return doneOutcome(sub.ID, sub.Kind)

	default:
		return failedOutcome(sub.ID, sub.Kind, fmt.Sprintf("unsupported kind %q", sub.Kind))
	}
}

// writeOutcome writes atomically: temp file in the outbox directory, then
// rename, so consumers never observe a half-written outcome.
func (p *Processor) writeOutcome(o *Outcome) error {
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	tmp, err := os.CreateTemp(p.outbox, ".outcome-*")
	if err != nil {
		return fmt.Errorf("create outcome temp: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write outcome: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close outcome: %w", err)
	}

	final := filepath.Join(p.outbox, o.ID+".json")
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish outcome: %w", err)
	}
	return nil
}

func doneOutcome(id, kind string) *Outcome {
	return &Outcome{
		ID:          id,
		Kind:        kind,
		Status:      StatusDone,
		CompletedAt: time.Now().UTC(),
	}
}

func failedOutcome(id, kind, msg string) *Outcome {
	return &Outcome{
		ID:          id,
		Kind:        kind,
		Status:      StatusFailed,
		Error:       msg,
		CompletedAt: time.Now().UTC(),
	}
}

// fallbackID names the outcome file for a submission that could not even
// be parsed.
func fallbackID(path string) string {
	base := filepath.Base(path)
	id := "malformed-" + base[:len(base)-len(filepath.Ext(base))]
	if !validJobID.MatchString(id) {
		return "malformed-" + uuid.NewString()
	}
	return id
}
