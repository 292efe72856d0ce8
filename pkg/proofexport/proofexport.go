// Package proofexport defines the interface to an external verification
// service. The core emits symbolic correctness claims about its primitives
// and receives opaque certificate handles back; it never blocks on a handle
// and functions identically when no exporter is configured.
package proofexport

import (
	"sync"

	"github.com/zeebo/blake3"
)

// Claim is a symbolic correctness statement about a scheme instance.
type Claim struct {
	// Scheme names the instance the claim is about, e.g. "kyber-768".
	Scheme string
	// Property is a short machine-readable property name,
	// e.g. "kem-round-trip".
	Property string
	// Statement is the human-readable claim body.
	Statement string
}

// Handle is an opaque certificate reference issued by a verification
// service. The core stores it but never interprets it.
type Handle [32]byte

// Exporter accepts correctness claims for external verification.
type Exporter interface {
	Export(c Claim) (Handle, error)
}

// Recorder is a local Exporter that derives handles by hashing the claim.
// It stands in for a remote verification service in tests and development.
type Recorder struct {
	mu     sync.Mutex
	claims []Claim
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Export records the claim and returns its blake3 digest as the handle.
func (r *Recorder) Export(c Claim) (Handle, error) {
	r.mu.Lock()
	r.claims = append(r.claims, c)
	r.mu.Unlock()

	h := blake3.New()
	h.Write([]byte(c.Scheme))
	h.Write([]byte{0})
	h.Write([]byte(c.Property))
	h.Write([]byte{0})
	h.Write([]byte(c.Statement))
	var out Handle
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Claims returns a copy of the recorded claims in export order.
func (r *Recorder) Claims() []Claim {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Claim, len(r.claims))
	copy(out, r.claims)
	return out
}
