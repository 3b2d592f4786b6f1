// Package model defines the core domain types shared across proofgate:
// circuit identifiers, verifying-key fingerprints, public inputs, decisions
// and rejection reasons. Everything downstream of the gateway speaks in
// these types.
package model

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math/big"
	"regexp"
	"strings"
)

// Containment level bounds. Levels outside [MinLevel, MaxLevel] are
// unrepresentable in a running gateway.
const (
	MinLevel = 1
	MaxLevel = 10
)

// MilestoneStreak is the consecutive-pass count at which a circuit is
// considered closed and the one-time milestone event fires.
const MilestoneStreak = 100

// inputWordSize is the fixed width, in bytes, of one public input word in
// the canonical hash encoding.
const inputWordSize = 32

// validCircuitID matches alphanumeric characters, dashes, underscores and
// dots only.
var validCircuitID = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,128}$`)

// CircuitID uniquely names a registered circuit. IDs are never reused for a
// different verifying key; replacing a key means registering a new ID.
type CircuitID string

// Valid reports whether the ID has an acceptable shape.
func (id CircuitID) Valid() bool {
	return validCircuitID.MatchString(string(id))
}

// Fingerprint is the hex-encoded SHA-256 of a circuit's verifying key.
// It is set once at registration and has no update path.
type Fingerprint string

// FingerprintOf computes the fingerprint of raw verifying-key bytes.
func FingerprintOf(vk []byte) Fingerprint {
	sum := sha256.Sum256(vk)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// Valid reports whether the fingerprint is a well-formed, non-zero digest.
func (fp Fingerprint) Valid() bool {
	if len(fp) != 2*sha256.Size {
		return false
	}
	raw, err := hex.DecodeString(string(fp))
	if err != nil {
		return false
	}
	for _, b := range raw {
		if b != 0 {
			return true
		}
	}
	return false // all-zero digest is reserved as "unset"
}

// Proof is an opaque serialized proof. The gateway never interprets it;
// only the circuit's capability does.
type Proof []byte

// PublicInputs are the public inputs a proof is verified against.
type PublicInputs []*big.Int

// Valid reports whether every input fits the canonical word: non-nil,
// non-negative, at most 32 bytes.
func (in PublicInputs) Valid() bool {
	for _, v := range in {
		if v == nil || v.Sign() < 0 || v.BitLen() > 8*inputWordSize {
			return false
		}
	}
	return true
}

// Hash returns the canonical digest of the inputs: SHA-256 over each input
// encoded as a fixed-width 32-byte big-endian word. Events carry this hash
// rather than the raw inputs.
//
// Hash is total. Out-of-range values (negative, or wider than a word)
// cannot use the fixed encoding; they hash through a sign- and
// length-prefixed form instead, so a submission the gateway is about to
// reject still gets a distinct, recordable digest.
func (in PublicInputs) Hash() string {
	h := sha256.New()
	var word [inputWordSize]byte
	for _, v := range in {
		if v != nil && (v.Sign() < 0 || v.BitLen() > 8*inputWordSize) {
			var prefix [9]byte
			if v.Sign() < 0 {
				prefix[0] = 0xff
			} else {
				prefix[0] = 0x01
			}
			raw := v.Bytes()
			binary.BigEndian.PutUint64(prefix[1:], uint64(len(raw)))
			h.Write(prefix[:])
			h.Write(raw)
			continue
		}
		for i := range word {
			word[i] = 0
		}
		if v != nil {
			v.FillBytes(word[:])
		}
		h.Write(word[:])
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}

// Decision is the binary outcome of a verification submission.
type Decision string

const (
	Accept Decision = "accept"
	Reject Decision = "reject"
)

// Reason classifies why a submission was rejected. Accepted submissions
// carry no reason.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonCircuitNotFound  Reason = "circuit_not_found"
	ReasonCircuitDisabled  Reason = "circuit_disabled"
	ReasonContainmentLow   Reason = "containment_too_low"
	ReasonInvalidInputs    Reason = "invalid_inputs"
	ReasonVerifierRejected Reason = "verifier_rejected"
)

// ReasonCode returns the stable numeric code for a reason, for consumers
// that index rejections numerically.
func ReasonCode(r Reason) int {
	switch r {
	case ReasonCircuitNotFound:
		return 0
	case ReasonCircuitDisabled:
		return 1
	case ReasonContainmentLow:
		return 2
	case ReasonVerifierRejected:
		return 3
	case ReasonInvalidInputs:
		return 4
	default:
		return -1
	}
}

// Result is the structured outcome of one verification submission. It is
// always produced, never an error: verification failures are decisions,
// not exceptions.
type Result struct {
	CircuitID  CircuitID `json:"circuit_id"`
	Decision   Decision  `json:"decision"`
	Reason     Reason    `json:"reason,omitempty"`
	InputsHash string    `json:"inputs_hash"`
	Seq        uint64    `json:"seq"`
	Streak     uint64    `json:"streak"`
}

// Accepted reports whether the submission was accepted.
func (r Result) Accepted() bool {
	return r.Decision == Accept
}

// String renders the result for terminal output.
func (r Result) String() string {
	var b strings.Builder
	b.WriteString(string(r.CircuitID))
	b.WriteString(": ")
	b.WriteString(string(r.Decision))
	if r.Reason != ReasonNone {
		b.WriteString(" (")
		b.WriteString(string(r.Reason))
		b.WriteString(")")
	}
	return b.String()
}
