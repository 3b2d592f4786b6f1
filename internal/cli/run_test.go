package cli

import (
	"context"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/proofgate/internal/audit"
	"github.com/ppiankov/proofgate/internal/config"
	"github.com/ppiankov/proofgate/internal/model"
)

func restartConfig(t *testing.T, fingerprint string) *config.Config {
	t.Helper()
	return &config.Config{
		AdminCaller:  "governance",
		InitialLevel: 4,
		AuditLog:     filepath.Join(t.TempDir(), "events.jsonl"),
		Circuits: []config.CircuitConfig{{
			ID:          "c1",
			Fingerprint: fingerprint,
			MinLevel:    1,
			Capability:  config.CapabilitySpec{Kind: config.KindAlwaysAccept},
		}},
	}
}

func TestBootGatewayRestartRoundTrip(t *testing.T) {
	fp := string(model.FingerprintOf([]byte("c1-key")))
	cfg := restartConfig(t, fp)

	gw, log, err := bootGateway(cfg)
	if err != nil {
		t.Fatalf("first boot: %v", err)
	}
	if err := gw.SetLevel("governance", 5); err != nil {
		t.Fatalf("set level: %v", err)
	}
	inputs := model.PublicInputs{big.NewInt(1)}
	for i := 0; i < 2; i++ {
		if res := gw.VerifyAndRecord(context.Background(), "s", "c1", inputs, model.Proof("p")); !res.Accepted() {
			t.Fatalf("accept %d: %s", i, res.Reason)
		}
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	gw2, log2, err := bootGateway(cfg)
	if err != nil {
		t.Fatalf("second boot: %v", err)
	}
	defer log2.Close()

	// State comes back from the trail, not from a fresh registration.
	if gw2.Level() != 5 {
		t.Errorf("level after restart = %d, want 5", gw2.Level())
	}
	st, err := gw2.CircuitStats("c1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Accepted != 2 || st.Streak != 2 {
		t.Errorf("restored counters = %+v, want accepted 2 streak 2", st)
	}

	// The restart appended no second registration event, and the streak
	// continues seamlessly because the sequence resumed from the tail.
	regs, err := audit.Replay(cfg.AuditLog, audit.ReplayFilter{Kind: audit.KindCircuitRegistered})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(regs.Entries) != 1 {
		t.Fatalf("got %d registration events across restart, want 1", len(regs.Entries))
	}
	if res := gw2.VerifyAndRecord(context.Background(), "s", "c1", inputs, model.Proof("p")); res.Streak != 3 {
		t.Errorf("streak after restart = %d, want 3", res.Streak)
	}

	// The recovery path stays usable.
	circuits, level, err := audit.Rebuild(cfg.AuditLog)
	if err != nil {
		t.Fatalf("rebuild after restart: %v", err)
	}
	if level != 5 || circuits["c1"] == nil || circuits["c1"].Accepted != 3 {
		t.Errorf("rebuilt state: level=%d circuits=%+v", level, circuits["c1"])
	}
}

func TestBootGatewayRejectsKeySubstitution(t *testing.T) {
	fp := string(model.FingerprintOf([]byte("c1-key")))
	cfg := restartConfig(t, fp)

	gw, log, err := bootGateway(cfg)
	if err != nil {
		t.Fatalf("first boot: %v", err)
	}
	_ = gw
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	cfg.Circuits[0].Fingerprint = string(model.FingerprintOf([]byte("swapped-key")))
	if _, _, err := bootGateway(cfg); err == nil || !strings.Contains(err.Error(), "does not match") {
		t.Errorf("boot with substituted key: err = %v, want fingerprint mismatch", err)
	}
}

func TestBootGatewayRestoresDisabledCircuits(t *testing.T) {
	fp := string(model.FingerprintOf([]byte("c1-key")))
	cfg := restartConfig(t, fp)

	gw, log, err := bootGateway(cfg)
	if err != nil {
		t.Fatalf("first boot: %v", err)
	}
	if err := gw.Disable("governance", "c1"); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	gw2, log2, err := bootGateway(cfg)
	if err != nil {
		t.Fatalf("second boot: %v", err)
	}
	defer log2.Close()

	info, err := gw2.CircuitInfo("c1")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Enabled {
		t.Error("disabled circuit came back enabled after restart")
	}
	res := gw2.VerifyAndRecord(context.Background(), "s", "c1", model.PublicInputs{big.NewInt(1)}, model.Proof("p"))
	if res.Reason != model.ReasonCircuitDisabled {
		t.Errorf("reason = %s, want %s", res.Reason, model.ReasonCircuitDisabled)
	}
}
