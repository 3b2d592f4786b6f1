// Package config loads the proofgate daemon configuration from YAML.
// Circuits are declared here and registered at boot; the file's SHA-256
// is recorded for provenance, so an audit can tie a run to the exact
// configuration it started from.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/proofgate/internal/capability"
	"github.com/ppiankov/proofgate/internal/capability/groth16"
	"github.com/ppiankov/proofgate/internal/model"
)

// Capability kinds accepted in circuit definitions.
const (
	KindDivergence   = "divergence"
	KindGroth16      = "groth16"
	KindAlwaysAccept = "always_accept"
	KindAlwaysReject = "always_reject"
)

// CapabilitySpec selects and parameterizes a circuit's verifier.
type CapabilitySpec struct {
	Kind      string `yaml:"kind"`
	Threshold uint64 `yaml:"threshold,omitempty"` // divergence
	Curve     string `yaml:"curve,omitempty"`     // groth16
	VKPath    string `yaml:"vk_path,omitempty"`   // groth16
}

// CircuitConfig declares one circuit to register at boot.
type CircuitConfig struct {
	ID          string         `yaml:"id"`
	Fingerprint string         `yaml:"fingerprint,omitempty"`
	MinLevel    int            `yaml:"min_level"`
	Capability  CapabilitySpec `yaml:"capability"`
}

// Config holds all daemon configuration.
type Config struct {
	AdminCaller    string          `yaml:"admin_caller"`
	InitialLevel   int             `yaml:"initial_level"`
	VerifyDeadline Duration        `yaml:"verify_deadline"`
	AuditLog       string          `yaml:"audit_log"`
	Inbox          string          `yaml:"inbox"`
	Outbox         string          `yaml:"outbox"`
	Circuits       []CircuitConfig `yaml:"circuits"`
}

// Default returns the built-in configuration.
func Default() *Config {
	base := defaultDir()
	return &Config{
		AdminCaller:    "governance",
		InitialLevel:   4,
		VerifyDeadline: Duration(capability.DefaultDeadline),
		AuditLog:       filepath.Join(base, "events.jsonl"),
		Inbox:          filepath.Join(base, "inbox"),
		Outbox:         filepath.Join(base, "outbox"),
	}
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".proofgate"
	}
	return filepath.Join(home, ".proofgate")
}

// Load reads configuration from a YAML file. Empty path falls back to
// ~/.proofgate/config.yaml. A missing file returns defaults; invalid YAML
// returns an error.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithHash(path)
	return cfg, err
}

// LoadWithHash is Load plus the SHA-256 of the raw file, for provenance.
// The hash is empty when defaults are used.
func LoadWithHash(path string) (*Config, string, error) {
	if path == "" {
		path = filepath.Join(defaultDir(), "config.yaml")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), "", nil
		}
		return nil, "", fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, "", fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	sum := sha256.Sum256(raw)
	return cfg, "sha256:" + hex.EncodeToString(sum[:]), nil
}

// Validate checks structural invariants the gateway would otherwise
// reject at boot, so misconfiguration surfaces with file context.
func (c *Config) Validate() error {
	if c.AdminCaller == "" {
		return fmt.Errorf("config: admin_caller is required")
	}
	if c.InitialLevel < model.MinLevel || c.InitialLevel > model.MaxLevel {
		return fmt.Errorf("config: initial_level %d outside [%d,%d]", c.InitialLevel, model.MinLevel, model.MaxLevel)
	}
	for i, cc := range c.Circuits {
		if !model.CircuitID(cc.ID).Valid() {
			return fmt.Errorf("config: circuits[%d]: invalid id %q", i, cc.ID)
		}
		if cc.MinLevel < model.MinLevel || cc.MinLevel > model.MaxLevel {
			return fmt.Errorf("config: circuit %s: min_level %d outside [%d,%d]", cc.ID, cc.MinLevel, model.MinLevel, model.MaxLevel)
		}
		switch cc.Capability.Kind {
		case KindDivergence, KindAlwaysAccept, KindAlwaysReject:
			if cc.Fingerprint == "" {
				return fmt.Errorf("config: circuit %s: fingerprint is required for %s capability", cc.ID, cc.Capability.Kind)
			}
		case KindGroth16:
			if cc.Capability.VKPath == "" {
				return fmt.Errorf("config: circuit %s: vk_path is required for groth16 capability", cc.ID)
			}
		default:
			return fmt.Errorf("config: circuit %s: unknown capability kind %q", cc.ID, cc.Capability.Kind)
		}
	}
	return nil
}

// Build constructs the circuit's verifier and resolves its fingerprint.
// For groth16 the fingerprint is derived from the verifying key itself;
// a declared fingerprint that disagrees with the key is a hard error.
func (cc CircuitConfig) Build() (capability.Verifier, model.Fingerprint, error) {
	switch cc.Capability.Kind {
	case KindDivergence:
		return capability.NewDivergence(cc.Capability.Threshold), model.Fingerprint(cc.Fingerprint), nil

	case KindAlwaysAccept:
		return capability.AlwaysAccept(), model.Fingerprint(cc.Fingerprint), nil

	case KindAlwaysReject:
		return capability.AlwaysReject(), model.Fingerprint(cc.Fingerprint), nil

	case KindGroth16:
		curve := cc.Capability.Curve
		if curve == "" {
			curve = "bn254"
		}
		v, err := groth16.Load(curve, cc.Capability.VKPath)
		if err != nil {
			return nil, "", fmt.Errorf("config: circuit %s: %w", cc.ID, err)
		}
		if cc.Fingerprint != "" && model.Fingerprint(cc.Fingerprint) != v.Fingerprint() {
			return nil, "", fmt.Errorf("config: circuit %s: declared fingerprint does not match verifying key", cc.ID)
		}
		return v, v.Fingerprint(), nil

	default:
		return nil, "", fmt.Errorf("config: circuit %s: unknown capability kind %q", cc.ID, cc.Capability.Kind)
	}
}
