package order

import (
	"regexp"
	"time"
)

// Order identifiers look like ORD-1234: the ORD prefix plus exactly four digits.
var (
	idPattern          = regexp.MustCompile(`ORD-\d{4}`)
	idExactPattern     = regexp.MustCompile(`^ORD-\d{4}$`)
	idCandidatePattern = regexp.MustCompile(`\b[A-Z]{2,5}-\d{4}\b`)
)

// ValidID reports whether id matches the required identifier format exactly.
func ValidID(id string) bool {
	return idExactPattern.MatchString(id)
}

// ExtractID returns the first order identifier embedded in free text, if any.
func ExtractID(text string) (string, bool) {
	m := idPattern.FindString(text)
	return m, m != ""
}

// ExtractIDCandidate finds anything shaped like an order id, valid or not, so
// a mistyped identifier can be rejected without guessing from context.
func ExtractIDCandidate(text string) (string, bool) {
	m := idCandidatePattern.FindString(text)
	return m, m != ""
}

// Record mirrors the order system's read model. Owned by the external
// service; read-only here.
type Record struct {
	OrderID  string    `json:"orderId"`
	PlacedAt time.Time `json:"placed_at"`
	Status   string    `json:"status"`
	ETA      string    `json:"eta"`
}

// Tracking is the shipment view returned by the tracking endpoint.
type Tracking struct {
	Status string `json:"status"`
	ETA    string `json:"eta"`
}

// CancelKind enumerates the closed set of cancellation outcomes.
type CancelKind string

const (
	CancelSuccess    CancelKind = "cancelled"
	CancelIneligible CancelKind = "ineligible"
	CancelNotFound   CancelKind = "not_found"
	CancelTransient  CancelKind = "transient_failure"
)

// CancelOutcome classifies one cancellation attempt. Refunded is only
// meaningful for CancelSuccess; Reason only for the failure kinds.
type CancelOutcome struct {
	Kind     CancelKind `json:"status"`
	Refunded bool       `json:"refunded,omitempty"`
	Reason   string     `json:"reason,omitempty"`
}
