package daemon

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/proofgate/internal/audit"
	"github.com/ppiankov/proofgate/internal/capability"
	"github.com/ppiankov/proofgate/internal/gateway"
	"github.com/ppiankov/proofgate/internal/model"
	"github.com/ppiankov/proofgate/internal/sequence"
)

const testAdmin = "governance"

func newTestProcessor(t *testing.T) (*Processor, *gateway.Gateway, string, string) {
	t.Helper()
	gw, err := gateway.New(gateway.Config{
		AdminCaller:  testAdmin,
		InitialLevel: 4,
		Sequence:     sequence.NewCounter(0),
		Events:       audit.NewMemory(),
	})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	fp := model.FingerprintOf([]byte("price-feed"))
	if err := gw.Register(testAdmin, "price-feed", capability.NewDivergence(0), fp, 1); err != nil {
		t.Fatalf("register: %v", err)
	}

	inbox := t.TempDir()
	outbox := t.TempDir()
	return NewProcessor(gw, outbox), gw, inbox, outbox
}

func dropSubmission(t *testing.T, inbox string, sub Submission) string {
	t.Helper()
	data, err := json.Marshal(sub)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(inbox, sub.ID+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func readOutcome(t *testing.T, outbox, id string) *Outcome {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outbox, id+".json"))
	if err != nil {
		t.Fatalf("read outcome %s: %v", id, err)
	}
	var o Outcome
	if err := json.Unmarshal(data, &o); err != nil {
		t.Fatalf("unmarshal outcome: %v", err)
	}
	return &o
}

func TestProcessVerifyJob(t *testing.T) {
	p, _, inbox, outbox := newTestProcessor(t)

	path := dropSubmission(t, inbox, Submission{
		ID:           "job-1",
		Kind:         JobVerify,
		Caller:       "submitter",
		CircuitID:    "price-feed",
		PublicInputs: []string{"850000", "800000"},
		Proof:        base64.StdEncoding.EncodeToString([]byte("claim")),
	})

	if err := p.Process(context.Background(), path); err != nil {
		t.Fatalf("process: %v", err)
	}

	o := readOutcome(t, outbox, "job-1")
	if o.Status != StatusDone {
		t.Fatalf("status = %s, error = %s", o.Status, o.Error)
	}
	if o.Result == nil || !o.Result.Accepted() {
		t.Errorf("result = %+v, want acceptance", o.Result)
	}
	if o.Result.Streak != 1 {
		t.Errorf("streak = %d, want 1", o.Result.Streak)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("inbox file not removed after processing")
	}
}

func TestProcessVerifyRejection(t *testing.T) {
	p, _, inbox, outbox := newTestProcessor(t)

	path := dropSubmission(t, inbox, Submission{
		ID:           "job-2",
		Kind:         JobVerify,
		Caller:       "submitter",
		CircuitID:    "price-feed",
		PublicInputs: []string{"900000", "700000"},
		Proof:        base64.StdEncoding.EncodeToString([]byte("claim")),
	})

	if err := p.Process(context.Background(), path); err != nil {
		t.Fatalf("process: %v", err)
	}

	// A rejection is still a completed job; the decision lives in the
	// result, not the job status.
	o := readOutcome(t, outbox, "job-2")
	if o.Status != StatusDone {
		t.Fatalf("status = %s", o.Status)
	}
	if o.Result.Decision != model.Reject || o.Result.Reason != model.ReasonVerifierRejected {
		t.Errorf("result = %+v", o.Result)
	}
}

func TestProcessOversizedInputs(t *testing.T) {
	p, _, inbox, outbox := newTestProcessor(t)

	// A 100-digit input parses fine but exceeds the canonical 32-byte
	// word; the gateway must answer with a decision, not a crash.
	path := dropSubmission(t, inbox, Submission{
		ID:           "job-wide",
		Kind:         JobVerify,
		Caller:       "submitter",
		CircuitID:    "price-feed",
		PublicInputs: []string{strings.Repeat("9", 100), "800000"},
		Proof:        base64.StdEncoding.EncodeToString([]byte("claim")),
	})

	if err := p.Process(context.Background(), path); err != nil {
		t.Fatalf("process: %v", err)
	}
	o := readOutcome(t, outbox, "job-wide")
	if o.Status != StatusDone {
		t.Fatalf("status = %s, error = %s", o.Status, o.Error)
	}
	if o.Result == nil || o.Result.Reason != model.ReasonInvalidInputs {
		t.Errorf("result = %+v, want %s rejection", o.Result, model.ReasonInvalidInputs)
	}
}

func TestProcessSetLevelJob(t *testing.T) {
	p, gw, inbox, outbox := newTestProcessor(t)

	path := dropSubmission(t, inbox, Submission{
		ID:       "lvl-up",
		Kind:     JobSetLevel,
		Caller:   testAdmin,
		NewLevel: 5,
	})
	if err := p.Process(context.Background(), path); err != nil {
		t.Fatalf("process: %v", err)
	}

	if o := readOutcome(t, outbox, "lvl-up"); o.Status != StatusDone {
		t.Fatalf("status = %s, error = %s", o.Status, o.Error)
	}
	if gw.Level() != 5 {
		t.Errorf("level = %d, want 5", gw.Level())
	}

	// Same job from a non-admin caller fails without moving the level.
	path = dropSubmission(t, inbox, Submission{
		ID:       "lvl-bad",
		Kind:     JobSetLevel,
		Caller:   "intruder",
		NewLevel: 6,
	})
	if err := p.Process(context.Background(), path); err != nil {
		t.Fatalf("process: %v", err)
	}
	if o := readOutcome(t, outbox, "lvl-bad"); o.Status != StatusFailed {
		t.Errorf("status = %s, want failed", o.Status)
	}
	if gw.Level() != 5 {
		t.Errorf("unauthorized job moved level to %d", gw.Level())
	}
}

func TestProcessDisableJob(t *testing.T) {
	p, gw, inbox, outbox := newTestProcessor(t)

	path := dropSubmission(t, inbox, Submission{
		ID:        "retire",
		Kind:      JobDisable,
		Caller:    testAdmin,
		CircuitID: "price-feed",
	})
	if err := p.Process(context.Background(), path); err != nil {
		t.Fatalf("process: %v", err)
	}

	if o := readOutcome(t, outbox, "retire"); o.Status != StatusDone {
		t.Fatalf("status = %s, error = %s", o.Status, o.Error)
	}
	info, err := gw.CircuitInfo("price-feed")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Enabled {
		t.Error("circuit still enabled after disable job")
	}
}

func TestProcessMalformedJSON(t *testing.T) {
	p, _, inbox, outbox := newTestProcessor(t)

	path := filepath.Join(inbox, "garbage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := p.Process(context.Background(), path); err != nil {
		t.Fatalf("process: %v", err)
	}

	o := readOutcome(t, outbox, "malformed-garbage")
	if o.Status != StatusFailed {
		t.Errorf("status = %s, want failed", o.Status)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("malformed inbox file not removed")
	}
}

func TestProcessRejectsSymlink(t *testing.T) {
	p, _, inbox, _ := newTestProcessor(t)

	target := filepath.Join(t.TempDir(), "target.json")
	if err := os.WriteFile(target, []byte("{}"), 0600); err != nil {
		t.Fatalf("write target: %v", err)
	}
	link := filepath.Join(inbox, "sneaky.json")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if err := p.Process(context.Background(), link); err == nil {
		t.Error("symlinked submission must be rejected")
	}
	if _, err := os.Lstat(link); err != nil {
		t.Error("rejected symlink should be left in place for inspection")
	}
}

func TestValidateSubmission(t *testing.T) {
	cases := []struct {
		name string
		sub  Submission
		ok   bool
	}{
		{"valid verify", Submission{ID: "a", Kind: JobVerify, Caller: "c", CircuitID: "x"}, true},
		{"valid set_level", Submission{ID: "a", Kind: JobSetLevel, Caller: "c"}, true},
		{"missing id", Submission{Kind: JobVerify, Caller: "c", CircuitID: "x"}, false},
		{"bad id", Submission{ID: "../../etc", Kind: JobVerify, Caller: "c", CircuitID: "x"}, false},
		{"unknown kind", Submission{ID: "a", Kind: "register", Caller: "c"}, false},
		{"missing caller", Submission{ID: "a", Kind: JobVerify, CircuitID: "x"}, false},
		{"verify without circuit", Submission{ID: "a", Kind: JobVerify, Caller: "c"}, false},
		{"disable without circuit", Submission{ID: "a", Kind: JobDisable, Caller: "c"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateSubmission(&c.sub)
			if c.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !c.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDecodeInputs(t *testing.T) {
	sub := Submission{PublicInputs: []string{"42", "0xff", "0X10"}}
	inputs, err := sub.DecodeInputs()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []int64{42, 255, 16}
	for i, w := range want {
		if inputs[i].Int64() != w {
			t.Errorf("inputs[%d] = %s, want %d", i, inputs[i], w)
		}
	}

	bad := Submission{PublicInputs: []string{"not-a-number"}}
	if _, err := bad.DecodeInputs(); err == nil {
		t.Error("expected parse error")
	}
}

func TestDecodeProof(t *testing.T) {
	sub := Submission{Proof: base64.StdEncoding.EncodeToString([]byte("bytes"))}
	proof, err := sub.DecodeProof()
	if err != nil || string(proof) != "bytes" {
		t.Errorf("decode: %q, %v", proof, err)
	}

	empty := Submission{}
	if p, err := empty.DecodeProof(); err != nil || p != nil {
		t.Errorf("empty proof: %q, %v", p, err)
	}

	bad := Submission{Proof: "!!!not-base64!!!"}
	if _, err := bad.DecodeProof(); err == nil {
		t.Error("expected base64 error")
	}
}
