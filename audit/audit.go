// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package audit implements C4: a monotonic, hash-chained sequence of
// security-relevant events with an integrity verifier and an anomaly
// detector. It is the cross-cutting sink every state-changing component
// writes to; single-writer discipline is enforced with a mutex, and
// readers get an immutable snapshot view.
package audit

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	luxlog "github.com/luxfi/log"

	"github.com/luxfi/zkcred/crypto"
)

// Severity is the event severity scale §3 defines.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// EventType enumerates the event kinds §4.4 names the anomaly detector and
// a hosting application's own reporting key off of.
type EventType string

const (
	EventIdentityRegistered EventType = "IDENTITY"
	EventCredentialIssued   EventType = "CREDENTIAL"
	EventProofGenerated     EventType = "PROOF_GENERATE"
	EventProofVerified      EventType = "PROOF_VERIFY"
	EventRevocation         EventType = "REVOCATION"
	EventSecurityViolation  EventType = "SECURITY_VIOLATION"
	EventAuthentication     EventType = "AUTHENTICATION"
	EventAccessControl      EventType = "ACCESS_CONTROL"
	EventDataAccess         EventType = "DATA_ACCESS"
	EventRateLimitExceeded  EventType = "RATE_LIMIT"
)

// Event is one entry of the audit chain. Field order here IS the canonical
// field order used to compute Hash; do not reorder without considering
// every already-chained event's hash.
type Event struct {
	ID             string            `json:"id"`
	Timestamp      int64             `json:"timestamp"` // milliseconds
	SequenceNumber int               `json:"sequenceNumber"`
	Type           EventType         `json:"type"`
	Severity       Severity          `json:"severity"`
	Actor          string            `json:"actor"`
	Resource       string            `json:"resource"`
	Action         string            `json:"action"`
	Details        map[string]string `json:"details,omitempty"`
	Outcome        string            `json:"outcome"`
	PreviousHash   string            `json:"previousHash"`
	Hash           string            `json:"hash,omitempty"`
}

// canonical renders every field except Hash in fixed order.
func (e Event) canonical() ([]byte, error) {
	cp := e
	cp.Hash = ""
	return json.Marshal(cp)
}

// The New*Event constructors below are the one typed helper per §4.4 event
// kind; every call site builds an Event through one of these instead of
// filling in a raw Type string, so the anomaly detector's expectations
// (EventAuthentication/EventDataAccess) stay in sync with what callers emit.

// NewIdentityRegisteredEvent records a successful identity registration.
func NewIdentityRegisteredEvent(identityID string) Event {
	return Event{Type: EventIdentityRegistered, Severity: SeverityInfo, Actor: identityID, Resource: identityID, Action: "register", Outcome: "success"}
}

// NewCredentialIssuedEvent records a successful credential issuance.
func NewCredentialIssuedEvent(identityID, credentialID string) Event {
	return Event{Type: EventCredentialIssued, Severity: SeverityInfo, Actor: identityID, Resource: credentialID, Action: "issue", Outcome: "success"}
}

// NewProofGeneratedEvent records a proof-generation attempt for claimKind.
func NewProofGeneratedEvent(claimKind, outcome string) Event {
	sev := SeverityInfo
	if outcome != "success" {
		sev = SeverityError
	}
	return Event{Type: EventProofGenerated, Severity: sev, Resource: claimKind, Action: "generate", Outcome: outcome}
}

// NewProofVerifiedEvent records a proof-verification attempt for claimKind.
func NewProofVerifiedEvent(claimKind, outcome string) Event {
	sev := SeverityInfo
	if outcome == "failure" || outcome == "timeout" {
		sev = SeverityError
	}
	return Event{Type: EventProofVerified, Severity: sev, Resource: claimKind, Action: "verify", Outcome: outcome}
}

// NewRevocationEvent records a credential revocation or restore.
func NewRevocationEvent(credentialID, action string) Event {
	return Event{Type: EventRevocation, Severity: SeverityWarning, Resource: credentialID, Action: action, Outcome: "success"}
}

// NewSecurityViolationEvent records a detected security violation.
func NewSecurityViolationEvent(actor, resource, detail string) Event {
	return Event{
		Type: EventSecurityViolation, Severity: SeverityCritical, Actor: actor, Resource: resource,
		Action: "violation", Outcome: "failure", Details: map[string]string{"detail": detail},
	}
}

// NewAuthenticationFailureEvent records a failed authentication attempt,
// the signal the anomaly detector's repeated-failure check counts.
func NewAuthenticationFailureEvent(actor string) Event {
	return Event{Type: EventAuthentication, Severity: SeverityError, Actor: actor, Resource: actor, Action: "login", Outcome: "failure"}
}

// NewAccessControlDeniedEvent records a denied access-control decision.
func NewAccessControlDeniedEvent(actor, resource string) Event {
	return Event{Type: EventAccessControl, Severity: SeverityWarning, Actor: actor, Resource: resource, Action: "authorize", Outcome: "denied"}
}

// NewDataAccessEvent records a successful read of resource by actor, the
// signal the anomaly detector's excessive-access check counts.
func NewDataAccessEvent(actor, resource string) Event {
	return Event{Type: EventDataAccess, Severity: SeverityInfo, Actor: actor, Resource: resource, Action: "read", Outcome: "success"}
}

// NewRateLimitExceededEvent records a rate-limit rejection.
func NewRateLimitExceededEvent(actor string) Event {
	return Event{Type: EventRateLimitExceeded, Severity: SeverityWarning, Actor: actor, Resource: actor, Action: "throttle", Outcome: "rejected"}
}

// Violation describes one integrity break found by VerifyIntegrity.
type Violation struct {
	SequenceNumber int
	Kind           string // "sequence_gap" | "previous_hash_mismatch" | "hash_mismatch"
	Detail         string
}

// Anomaly is one finding of the anomaly detector.
type Anomaly struct {
	Actor       string
	Kind        string
	Severity    string // "HIGH" | "MEDIUM"
	Count       int
	Description string
}

// Thresholds configures the anomaly detector. Thresholds are configuration,
// not hardcoded semantics, per §4.4.
type Thresholds struct {
	AuthFailureCount int
	DataAccessCount  int
}

// DefaultThresholds returns the thresholds §4.4 names: >=5 AUTHENTICATION
// failures, >100 DATA_ACCESS events, both by the same actor.
func DefaultThresholds() Thresholds {
	return Thresholds{AuthFailureCount: 5, DataAccessCount: 100}
}

// Log is the hash-chained event sequence. Zero value is not usable;
// construct with New.
type Log struct {
	mu     sync.Mutex
	events []Event
	logger luxlog.Logger
}

// New builds an empty audit log.
func New() *Log {
	return &Log{logger: luxlog.New("component", "audit")}
}

// Append assigns sequenceNumber/previousHash/hash and appends the event,
// mirroring it to the operational logger. This is the only write path;
// callers build the Event with one of the New*Event constructors above
// (or a literal, for an ad hoc type) and pass it straight through.
func (l *Log) Append(e Event) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.SequenceNumber = len(l.events)
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	if len(l.events) == 0 {
		e.PreviousHash = strings.Repeat("0", 64)
	} else {
		e.PreviousHash = l.events[len(l.events)-1].Hash
	}
	canon, err := e.canonical()
	if err != nil {
		// Canonicalization of our own fixed-field struct cannot fail in
		// practice; if it ever does, chain integrity matters more than a
		// partially-logged event, so this event is dropped rather than
		// appended with a bogus hash.
		l.logger.Error("audit: canonicalize failed", "err", err)
		return e
	}
	e.Hash = crypto.Hash(canon)
	l.events = append(l.events, e)

	l.mirror(e)
	return e
}

func (l *Log) mirror(e Event) {
	switch e.Severity {
	case SeverityCritical, SeverityError:
		l.logger.Error(e.Action, "type", e.Type, "actor", e.Actor, "resource", e.Resource, "outcome", e.Outcome)
	case SeverityWarning:
		l.logger.Warn(e.Action, "type", e.Type, "actor", e.Actor, "resource", e.Resource, "outcome", e.Outcome)
	default:
		l.logger.Info(e.Action, "type", e.Type, "actor", e.Actor, "resource", e.Resource, "outcome", e.Outcome)
	}
}

// Snapshot returns an immutable copy of the full sequence as currently
// observed; concurrent readers see either a prefix or the current full
// sequence, never a torn entry.
func (l *Log) Snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// ByResource returns every event whose Resource matches.
func (l *Log) ByResource(resource string) []Event { return l.filter(func(e Event) bool { return e.Resource == resource }) }

// ByActor returns every event whose Actor matches.
func (l *Log) ByActor(actor string) []Event { return l.filter(func(e Event) bool { return e.Actor == actor }) }

// ByType returns every event whose Type matches.
func (l *Log) ByType(typ EventType) []Event { return l.filter(func(e Event) bool { return e.Type == typ }) }

// BySeverity returns every event at the given severity.
func (l *Log) BySeverity(sev Severity) []Event { return l.filter(func(e Event) bool { return e.Severity == sev }) }

// ByTimeRange returns every event with startMS <= Timestamp <= endMS.
func (l *Log) ByTimeRange(startMS, endMS int64) []Event {
	return l.filter(func(e Event) bool { return e.Timestamp >= startMS && e.Timestamp <= endMS })
}

func (l *Log) filter(pred func(Event) bool) []Event {
	snap := l.Snapshot()
	out := make([]Event, 0, len(snap))
	for _, e := range snap {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// VerifyIntegrity replays the chain, returning every sequence-number gap,
// previousHash mismatch, and recomputed-hash mismatch it finds.
func (l *Log) VerifyIntegrity() []Violation {
	snap := l.Snapshot()
	var violations []Violation
	prevHash := strings.Repeat("0", 64)
	for i, e := range snap {
		if e.SequenceNumber != i {
			violations = append(violations, Violation{
				SequenceNumber: i, Kind: "sequence_gap",
				Detail: "expected sequenceNumber " + itoa(i),
			})
		}
		if e.PreviousHash != prevHash {
			violations = append(violations, Violation{
				SequenceNumber: i, Kind: "previous_hash_mismatch",
			})
		}
		canon, err := e.canonical()
		if err != nil {
			violations = append(violations, Violation{SequenceNumber: i, Kind: "hash_mismatch", Detail: err.Error()})
			prevHash = e.Hash
			continue
		}
		if crypto.Hash(canon) != e.Hash {
			violations = append(violations, Violation{SequenceNumber: i, Kind: "hash_mismatch"})
		}
		prevHash = e.Hash
	}
	return violations
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

// DetectAnomalies scans the log for the two patterns §4.4 names:
// repeated AUTHENTICATION failures and excessive DATA_ACCESS by one actor.
func (l *Log) DetectAnomalies(th Thresholds) []Anomaly {
	snap := l.Snapshot()
	authFailures := map[string]int{}
	dataAccess := map[string]int{}
	for _, e := range snap {
		switch e.Type {
		case EventAuthentication:
			if e.Outcome == "failure" {
				authFailures[e.Actor]++
			}
		case EventDataAccess:
			dataAccess[e.Actor]++
		}
	}

	var anomalies []Anomaly
	for actor, count := range authFailures {
		if count >= th.AuthFailureCount {
			anomalies = append(anomalies, Anomaly{
				Actor: actor, Kind: "repeated_auth_failure", Severity: "HIGH", Count: count,
				Description: "actor exceeded authentication failure threshold",
			})
		}
	}
	for actor, count := range dataAccess {
		if count > th.DataAccessCount {
			anomalies = append(anomalies, Anomaly{
				Actor: actor, Kind: "excessive_data_access", Severity: "MEDIUM", Count: count,
				Description: "actor exceeded data access threshold",
			})
		}
	}
	sort.Slice(anomalies, func(i, j int) bool { return anomalies[i].Actor < anomalies[j].Actor })
	return anomalies
}

// MaskPublicKey renders a public key as <first4>...<last4> for storage in
// event details, per §4.4's sensitive-field masking rule.
func MaskPublicKey(pk string) string {
	if len(pk) <= 8 {
		return pk
	}
	return pk[:4] + "..." + pk[len(pk)-4:]
}
