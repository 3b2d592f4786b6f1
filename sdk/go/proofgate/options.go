package proofgate

import (
	"time"

	"github.com/ppiankov/proofgate/internal/audit"
	"github.com/ppiankov/proofgate/internal/sequence"
)

// Option configures a Gateway at creation time.
type Option func(*gatewayConfig)

type gatewayConfig struct {
	admin        string
	caller       string
	initialLevel int
	auditLogPath string
	sink         audit.Sink
	source       sequence.Source
	deadline     time.Duration
}

// WithAdmin sets the trusted administrative caller identity. Defaults to
// "governance".
func WithAdmin(identity string) Option {
	return func(c *gatewayConfig) { c.admin = identity }
}

// WithCaller sets the identity stamped on verification events submitted
// through this handle. Defaults to the admin identity.
func WithCaller(identity string) Option {
	return func(c *gatewayConfig) { c.caller = identity }
}

// WithInitialLevel sets the containment level at construction. Defaults
// to 4.
func WithInitialLevel(level int) Option {
	return func(c *gatewayConfig) { c.initialLevel = level }
}

// WithAuditLog writes the event trail to a hash-chained JSONL file at
// path, in addition to the in-memory trail.
func WithAuditLog(path string) Option {
	return func(c *gatewayConfig) { c.auditLogPath = path }
}

// WithEventSink adds a custom event consumer alongside the in-memory
// trail.
func WithEventSink(sink audit.Sink) Option {
	return func(c *gatewayConfig) { c.sink = sink }
}

// WithSequenceSource supplies the host's strictly increasing sequence
// source (e.g. chain height). Defaults to an in-process counter.
func WithSequenceSource(src sequence.Source) Option {
	return func(c *gatewayConfig) { c.source = src }
}

// WithVerifyDeadline bounds a single capability invocation. A verifier
// that overruns it is treated as rejecting.
func WithVerifyDeadline(d time.Duration) Option {
	return func(c *gatewayConfig) { c.deadline = d }
}
