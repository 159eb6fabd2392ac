// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package identity implements C5: the identity registry. Each identity is
// keyed by its id and indexed by its public key for O(1) lookup by either.
package identity

import (
	"sync"
	"time"

	"github.com/luxfi/zkcred/audit"
	"github.com/luxfi/zkcred/config"
	"github.com/luxfi/zkcred/validate"
	"github.com/luxfi/zkcred/xerrors"
)

// Identity is one registered subject.
type Identity struct {
	ID         string
	PublicKey  string
	Attributes []validate.Attribute
	CreatedAt  int64 // milliseconds
	UpdatedAt  int64
}

// Registry holds every registered identity, indexed by id and by public key.
// Zero value is not usable; construct with New.
type Registry struct {
	mu         sync.RWMutex
	byID       map[string]*Identity
	byPubKey   map[string]string // publicKey -> id
	limits     *config.Limits
	auditLog   *audit.Log
}

// New builds an empty registry writing to the given audit log.
func New(limits *config.Limits, auditLog *audit.Log) *Registry {
	return &Registry{
		byID:     make(map[string]*Identity),
		byPubKey: make(map[string]string),
		limits:   limits,
		auditLog: auditLog,
	}
}

// Register creates a new identity. The public key must be unique across the
// registry; duplicates are a *xerrors.Conflict.
func (r *Registry) Register(id, publicKey string, attrs []validate.Attribute, now time.Time) (*Identity, error) {
	if err := validate.IdentityID(id); err != nil {
		return nil, err
	}
	if err := validate.PublicKey(publicKey); err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := validate.AttributeList(attrs, r.limits, now); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; exists {
		return nil, &xerrors.Conflict{Kind: "identity", ExistingID: id}
	}
	if _, exists := r.byPubKey[publicKey]; exists {
		return nil, &xerrors.Conflict{Kind: "identity.publicKey", ExistingID: audit.MaskPublicKey(publicKey)}
	}

	ident := &Identity{
		ID:         id,
		PublicKey:  publicKey,
		Attributes: append([]validate.Attribute(nil), attrs...),
		CreatedAt:  now.UnixMilli(),
		UpdatedAt:  now.UnixMilli(),
	}
	r.byID[id] = ident
	r.byPubKey[publicKey] = id

	if r.auditLog != nil {
		e := audit.NewIdentityRegisteredEvent(id)
		e.Details = map[string]string{"publicKey": audit.MaskPublicKey(publicKey)}
		r.auditLog.Append(e)
	}

	return cloneIdentity(ident), nil
}

// Get returns the identity by id, or *xerrors.NotFound.
func (r *Registry) Get(id string) (*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ident, ok := r.byID[id]
	if !ok {
		return nil, &xerrors.NotFound{Kind: "identity", ID: id}
	}
	return cloneIdentity(ident), nil
}

// FindByPublicKey resolves an identity by its public key.
func (r *Registry) FindByPublicKey(publicKey string) (*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPubKey[publicKey]
	if !ok {
		return nil, &xerrors.NotFound{Kind: "identity.publicKey", ID: audit.MaskPublicKey(publicKey)}
	}
	return cloneIdentity(r.byID[id]), nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// List returns every registered identity, id-ordered undefined (map
// iteration order); callers that need a stable order should sort.
func (r *Registry) List() []*Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Identity, 0, len(r.byID))
	for _, ident := range r.byID {
		out = append(out, cloneIdentity(ident))
	}
	return out
}

// UpdateAttributes merges new attribute values into the identity's
// attribute set keyed by name, appending new names and overwriting
// existing ones, then revalidates the merged set as a whole.
func (r *Registry) UpdateAttributes(id string, attrs []validate.Attribute, now time.Time) (*Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ident, ok := r.byID[id]
	if !ok {
		return nil, &xerrors.NotFound{Kind: "identity", ID: id}
	}

	merged := make(map[string]validate.Attribute, len(ident.Attributes)+len(attrs))
	for _, a := range ident.Attributes {
		merged[a.Name] = a
	}
	for _, a := range attrs {
		merged[a.Name] = a
	}
	out := make([]validate.Attribute, 0, len(merged))
	for _, a := range merged {
		out = append(out, a)
	}
	if err := validate.AttributeList(out, r.limits, now); err != nil {
		return nil, err
	}

	ident.Attributes = out
	ident.UpdatedAt = now.UnixMilli()

	if r.auditLog != nil {
		e := audit.NewIdentityRegisteredEvent(id)
		e.Action = "update_attributes"
		r.auditLog.Append(e)
	}

	return cloneIdentity(ident), nil
}

func cloneIdentity(i *Identity) *Identity {
	cp := *i
	cp.Attributes = append([]validate.Attribute(nil), i.Attributes...)
	return &cp
}
