// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package revocation implements C7: the revocation registry. It wraps a
// merkle.Tree as its accumulator, indexing each revoked credential by the
// tree slot its hash occupies.
package revocation

import (
	"sync"
	"time"

	"github.com/luxfi/zkcred/audit"
	"github.com/luxfi/zkcred/config"
	"github.com/luxfi/zkcred/crypto"
	"github.com/luxfi/zkcred/merkle"
	"github.com/luxfi/zkcred/validate"
	"github.com/luxfi/zkcred/xerrors"
)

// Record is one revocation entry. Lives forever once created; Restore
// removes it from the registry's map but the SMT leaf stays set (§9 open
// question, not a bug).
type Record struct {
	CredentialID string
	RevokedAt    int64
	Reason       string // "" if not supplied
}

// Proof is what generate_proof returns: whether the credential is known to
// be revoked, and if so the SMT inclusion proof for its leaf.
type Proof struct {
	Revoked  bool
	Root     string
	Siblings []string
}

// Statistics summarizes the registry's current state.
type Statistics struct {
	Total       int
	Last24Hours int
	ByReason    map[string]int
}

// Registry is the revocation accumulator. Zero value is not usable;
// construct with New.
type Registry struct {
	mu         sync.RWMutex
	smt        *merkle.Tree
	records    map[string]*Record
	treeIndex  map[string]uint64
	nextIndex  uint64
	version    uint64
	limits     *config.Limits
	auditLog   *audit.Log
}

// New builds an empty registry over a fresh tree of the configured depth.
func New(limits *config.Limits, auditLog *audit.Log) (*Registry, error) {
	tree, err := merkle.New(limits.SMTDepth)
	if err != nil {
		return nil, err
	}
	return &Registry{
		smt:       tree,
		records:   make(map[string]*Record),
		treeIndex: make(map[string]uint64),
		limits:    limits,
		auditLog:  auditLog,
	}, nil
}

// Revoke marks credentialID revoked. Duplicate revocation is a
// *xerrors.RevocationError, not silently accepted.
func (r *Registry) Revoke(credentialID string, reason string, now time.Time) (*Record, error) {
	if err := validate.CredentialID(credentialID); err != nil {
		return nil, err
	}
	sanitizedReason, err := validate.SanitizeString(reason, 500)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[credentialID]; exists {
		return nil, &xerrors.RevocationError{Reason: "already revoked: " + credentialID}
	}

	idx := r.nextIndex
	if idx >= r.smt.Capacity() {
		return nil, &xerrors.RevocationError{Reason: "revocation registry at capacity"}
	}
	if err := r.smt.Insert(idx, crypto.Hash([]byte(credentialID))); err != nil {
		return nil, err
	}
	r.nextIndex++
	r.version++

	rec := &Record{CredentialID: credentialID, RevokedAt: now.UnixMilli(), Reason: sanitizedReason}
	r.records[credentialID] = rec
	r.treeIndex[credentialID] = idx

	if r.auditLog != nil {
		r.auditLog.Append(audit.NewRevocationEvent(credentialID, "revoke"))
	}

	return cloneRecord(rec), nil
}

// BatchRevoke revokes every id in ids, skipping (and counting) ids already
// revoked; any other error aborts the whole batch with nothing further
// applied from the point of failure.
func (r *Registry) BatchRevoke(ids []string, reason string, now time.Time) (revoked int, skipped int, err error) {
	if len(ids) > r.limits.BatchRevokeMaxIDs {
		return 0, 0, &xerrors.ValidationError{Reason: "revocation: batch exceeds max ids"}
	}
	for _, id := range ids {
		_, err := r.Revoke(id, reason, now)
		if err != nil {
			if _, isRevErr := err.(*xerrors.RevocationError); isRevErr && r.IsRevoked(id) {
				skipped++
				continue
			}
			return revoked, skipped, err
		}
		revoked++
	}
	return revoked, skipped, nil
}

// IsRevoked reports whether credentialID has an active revocation record.
func (r *Registry) IsRevoked(credentialID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[credentialID]
	return ok
}

// Get returns the revocation record for credentialID.
func (r *Registry) Get(credentialID string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[credentialID]
	if !ok {
		return nil, &xerrors.NotFound{Kind: "revocation", ID: credentialID}
	}
	return cloneRecord(rec), nil
}

// List returns up to limit records starting at offset, in an unspecified
// but stable-per-call order.
func (r *Registry) List(limit, offset int) ([]*Record, error) {
	if limit < 0 || limit > r.limits.ListMaxLimit || offset < 0 {
		return nil, &xerrors.ValidationError{Reason: "revocation: limit/offset out of range"}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*Record, 0, len(r.records))
	for _, rec := range r.records {
		all = append(all, rec)
	}
	if offset > len(all) {
		return []*Record{}, nil
	}
	end := offset + limit
	if end > len(all) || limit == 0 {
		end = len(all)
	}
	out := make([]*Record, 0, end-offset)
	for _, rec := range all[offset:end] {
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

// GenerateProof returns {revoked:false} for an unknown credential, or the
// SMT inclusion proof for a revoked one.
func (r *Registry) GenerateProof(credentialID string) (*Proof, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.treeIndex[credentialID]
	if !ok {
		return &Proof{Revoked: false}, nil
	}
	smtProof, err := r.smt.GenerateProof(idx)
	if err != nil {
		return nil, err
	}
	return &Proof{Revoked: true, Root: smtProof.Root, Siblings: smtProof.Siblings}, nil
}

// BatchCheck returns a map from each id to its revoked state.
func (r *Registry) BatchCheck(ids []string) map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		_, ok := r.records[id]
		out[id] = ok
	}
	return out
}

// InRange returns every record with startMS <= RevokedAt <= endMS.
func (r *Registry) InRange(startMS, endMS int64) []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Record
	for _, rec := range r.records {
		if rec.RevokedAt >= startMS && rec.RevokedAt <= endMS {
			out = append(out, cloneRecord(rec))
		}
	}
	return out
}

// Statistics summarizes total revocations, revocations in the last 24
// hours relative to now, and a histogram by reason ("unspecified" for a
// missing reason).
func (r *Registry) Statistics(now time.Time) Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := Statistics{ByReason: make(map[string]int)}
	cutoff := now.Add(-24 * time.Hour).UnixMilli()
	for _, rec := range r.records {
		stats.Total++
		if rec.RevokedAt >= cutoff {
			stats.Last24Hours++
		}
		reason := rec.Reason
		if reason == "" {
			reason = "unspecified"
		}
		stats.ByReason[reason]++
	}
	return stats
}

// Root returns the SMT's current root.
func (r *Registry) Root() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.smt.Root()
}

// Version returns the registry's monotonic version counter.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Restore administratively reverses a revocation: the map entry is
// removed and version bumped, but the SMT leaf is left set, so root()
// keeps reflecting the revocation until a future redesign clears it.
func (r *Registry) Restore(credentialID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[credentialID]; !ok {
		return &xerrors.NotFound{Kind: "revocation", ID: credentialID}
	}
	delete(r.records, credentialID)
	delete(r.treeIndex, credentialID)
	r.version++

	if r.auditLog != nil {
		r.auditLog.Append(audit.NewRevocationEvent(credentialID, "restore"))
	}
	return nil
}

func cloneRecord(r *Record) *Record {
	cp := *r
	return &cp
}
