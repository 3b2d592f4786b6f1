// Package proofgate provides an in-process proof verification governance
// gateway for Go hosts. It registers circuits behind pluggable verifier
// capabilities, gates submissions on the containment level, decides each
// submission exactly once through a single canonical path, and records
// every decision in an append-only hash-chained event trail.
//
// Usage:
//
//	gw, err := proofgate.New(
//	    proofgate.WithAdmin("governance"),
//	    proofgate.WithInitialLevel(4),
//	    proofgate.WithAuditLog("/var/lib/proofgate/events.jsonl"),
//	)
//	err = gw.Register("goodhart-primary", verifier, fingerprint, 4)
//	result := gw.Verify(ctx, "goodhart-primary", inputs, proof)
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import github.com/ppiankov/proofgate/sdk/go/proofgate.
package proofgate
