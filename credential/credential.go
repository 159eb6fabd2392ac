// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package credential implements C6: the credential issuer. Signing is an
// HKDF-derived deterministic tag, not a public-key signature (§9's
// Signature scheme open question) — verification is symmetric, and the
// three-step contract (canonicalize, derive, tag) is kept separate so a
// future asymmetric scheme only touches sign/verify.
package credential

import (
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/luxfi/zkcred/audit"
	"github.com/luxfi/zkcred/config"
	"github.com/luxfi/zkcred/crypto"
	"github.com/luxfi/zkcred/validate"
	"github.com/luxfi/zkcred/xerrors"
)

// Credential is one issued, signed attribute bundle.
type Credential struct {
	ID         string
	IdentityID string
	Issuer     string
	Attributes []validate.Attribute // normalized: sorted by name
	Signature  string
	IssuedAt   int64
	ExpiresAt  *int64
}

// canonicalForm is the fixed-field-order payload the signature covers.
type canonicalForm struct {
	ID         string               `json:"id"`
	IdentityID string               `json:"identityId"`
	Issuer     string               `json:"issuer"`
	Attributes []validate.Attribute `json:"normalizedAttributes"`
	IssuedAt   int64                `json:"issuedAt"`
	ExpiresAt  *int64               `json:"expiresAt,omitempty"`
}

// Issuer holds one issuer's signing key and every credential it has issued.
// Zero value is not usable; construct with New.
type Issuer struct {
	mu       sync.RWMutex
	name     string
	key      []byte // 32 bytes
	limits   *config.Limits
	auditLog *audit.Log

	credentials map[string]*Credential
	bySubject   map[string][]string // identityId -> credentialIds, insertion order
}

// New constructs an Issuer. If key is nil, a fresh 32-byte CSPRNG key is
// generated; an explicit key must be exactly 32 bytes.
func New(issuerName string, key []byte, limits *config.Limits, auditLog *audit.Log) (*Issuer, error) {
	name, err := validate.SanitizeString(issuerName, 100)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, &xerrors.ValidationError{Reason: "credential: issuerName must be non-empty"}
	}
	if key == nil {
		k, err := crypto.SecureRandom(32)
		if err != nil {
			return nil, err
		}
		key = k
	} else if len(key) != 32 {
		return nil, &xerrors.ValidationError{Reason: "credential: issuerKey must be exactly 32 bytes"}
	}
	return &Issuer{
		name:        name,
		key:         append([]byte(nil), key...),
		limits:      limits,
		auditLog:    auditLog,
		credentials: make(map[string]*Credential),
		bySubject:   make(map[string][]string),
	}, nil
}

func normalize(attrs []validate.Attribute) []validate.Attribute {
	out := append([]validate.Attribute(nil), attrs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (iss *Issuer) canonicalBytes(id, identityID string, attrs []validate.Attribute, issuedAt int64, expiresAt *int64) ([]byte, error) {
	return json.Marshal(canonicalForm{
		ID: id, IdentityID: identityID, Issuer: iss.name,
		Attributes: attrs, IssuedAt: issuedAt, ExpiresAt: expiresAt,
	})
}

func (iss *Issuer) sign(canonical []byte) (string, error) {
	signingKey, err := crypto.HKDF(iss.key, []byte(iss.name), []byte("credential-signature"), 32)
	if err != nil {
		return "", err
	}
	defer crypto.SecureZero(signingKey)
	return crypto.Hash(append(append([]byte(nil), canonical...), signingKey...)), nil
}

func newCredentialID() (string, error) {
	b, err := crypto.SecureRandom(16)
	if err != nil {
		return "", err
	}
	return "cred_" + hex.EncodeToString(b), nil
}

// Issue validates, normalizes, signs, and stores a new credential for
// identityID.
func (iss *Issuer) Issue(identityID string, attrs []validate.Attribute, expiresAtMS *int64, now time.Time) (*Credential, error) {
	if err := validate.IdentityID(identityID); err != nil {
		return nil, err
	}
	if err := validate.AttributeList(attrs, iss.limits, now); err != nil {
		return nil, err
	}
	if err := validate.Expiration(expiresAtMS, now); err != nil {
		return nil, err
	}

	id, err := newCredentialID()
	if err != nil {
		return nil, err
	}
	normalized := normalize(attrs)
	issuedAt := now.UnixMilli()

	canonical, err := iss.canonicalBytes(id, identityID, normalized, issuedAt, expiresAtMS)
	if err != nil {
		return nil, &xerrors.CredentialError{Reason: "issue: canonicalization failed: " + err.Error()}
	}
	sig, err := iss.sign(canonical)
	if err != nil {
		return nil, err
	}

	cred := &Credential{
		ID: id, IdentityID: identityID, Issuer: iss.name,
		Attributes: normalized, Signature: sig, IssuedAt: issuedAt, ExpiresAt: expiresAtMS,
	}

	iss.mu.Lock()
	iss.credentials[id] = cred
	iss.bySubject[identityID] = append(iss.bySubject[identityID], id)
	iss.mu.Unlock()

	if iss.auditLog != nil {
		iss.auditLog.Append(audit.NewCredentialIssuedEvent(identityID, id))
	}

	return cloneCredential(cred), nil
}

// Verify recomputes the expected signature over the credential's stored
// normalized form and compares in constant time. Any structural defect
// (not the same as a forged signature) also yields false, never a panic.
func (iss *Issuer) Verify(cred *Credential) bool {
	if cred == nil {
		return false
	}
	canonical, err := iss.canonicalBytes(cred.ID, cred.IdentityID, cred.Attributes, cred.IssuedAt, cred.ExpiresAt)
	if err != nil {
		return false
	}
	expected, err := iss.sign(canonical)
	if err != nil {
		return false
	}
	return crypto.ConstantTimeEqual([]byte(expected), []byte(cred.Signature))
}

// IsExpired reports whether cred's expiresAt has passed as of now; a
// credential whose expiresAt equals now is not yet expired.
func IsExpired(cred *Credential, now time.Time) bool {
	if cred.ExpiresAt == nil {
		return false
	}
	return now.After(time.UnixMilli(*cred.ExpiresAt))
}

// IsValid reports Verify(cred) && !IsExpired(cred, now).
func (iss *Issuer) IsValid(cred *Credential, now time.Time) bool {
	return iss.Verify(cred) && !IsExpired(cred, now)
}

// Get returns a stored credential by id.
func (iss *Issuer) Get(id string) (*Credential, error) {
	iss.mu.RLock()
	defer iss.mu.RUnlock()
	cred, ok := iss.credentials[id]
	if !ok {
		return nil, &xerrors.NotFound{Kind: "credential", ID: id}
	}
	return cloneCredential(cred), nil
}

// ForSubject returns up to limit credentials for identityID, starting at
// offset, in issuance order.
func (iss *Issuer) ForSubject(identityID string, limit, offset int) ([]*Credential, error) {
	if limit < 0 || limit > iss.limits.ListMaxLimit {
		return nil, &xerrors.ValidationError{Reason: "credential: limit out of range"}
	}
	iss.mu.RLock()
	defer iss.mu.RUnlock()
	ids := iss.bySubject[identityID]
	if offset < 0 || offset > len(ids) {
		return nil, &xerrors.ValidationError{Reason: "credential: offset out of range"}
	}
	end := offset + limit
	if end > len(ids) || limit == 0 {
		end = len(ids)
	}
	out := make([]*Credential, 0, end-offset)
	for _, id := range ids[offset:end] {
		out = append(out, cloneCredential(iss.credentials[id]))
	}
	return out, nil
}

// CountForSubject returns the number of credentials issued to identityID.
func (iss *Issuer) CountForSubject(identityID string) int {
	iss.mu.RLock()
	defer iss.mu.RUnlock()
	return len(iss.bySubject[identityID])
}

func cloneCredential(c *Credential) *Credential {
	cp := *c
	cp.Attributes = append([]validate.Attribute(nil), c.Attributes...)
	if c.ExpiresAt != nil {
		v := *c.ExpiresAt
		cp.ExpiresAt = &v
	}
	return &cp
}
