// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validate implements C2: a pure module of total functions over
// payloads. Every failure surfaces as a single *xerrors.ValidationError;
// nothing here mutates state or performs I/O.
package validate

import (
	"encoding/json"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/luxfi/zkcred/config"
	"github.com/luxfi/zkcred/zkfield"

	"github.com/luxfi/zkcred/xerrors"
)

var (
	publicKeyRe    = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{64,130}$`)
	identityIDRe   = regexp.MustCompile(`^id_[0-9a-f]{32}$`)
	credentialIDRe = regexp.MustCompile(`^cred_[0-9a-f]{32}$`)
	attrNameRe     = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)
)

const tenYears = 10 * 365 * 24 * time.Hour

func vErr(reason string) error { return &xerrors.ValidationError{Reason: reason} }

// PublicKey validates a hex public key, 64-130 hex chars with an optional
// 0x prefix.
func PublicKey(pk string) error {
	if !publicKeyRe.MatchString(pk) {
		return vErr("public key must match ^(0x)?[0-9a-fA-F]{64,130}$")
	}
	return nil
}

// IdentityID validates the `id_`+32-hex identity id format.
func IdentityID(id string) error {
	if !identityIDRe.MatchString(id) {
		return vErr("identity id must match ^id_[0-9a-f]{32}$")
	}
	return nil
}

// CredentialID validates the `cred_`+32-hex credential id format.
func CredentialID(id string) error {
	if !credentialIDRe.MatchString(id) {
		return vErr("credential id must match ^cred_[0-9a-f]{32}$")
	}
	return nil
}

// AttributeValue is the tagged variant over string|number|boolean attribute
// values, serialized to JSON with a fixed type tag so round-tripping never
// loses the original dynamic type.
type AttributeValue struct {
	Kind   string  `json:"kind"` // "string" | "number" | "boolean"
	Str    string  `json:"str,omitempty"`
	Num    float64 `json:"num,omitempty"`
	Bool   bool    `json:"bool,omitempty"`
}

// NewStringValue builds a string-kinded AttributeValue.
func NewStringValue(s string) AttributeValue { return AttributeValue{Kind: "string", Str: s} }

// NewNumberValue builds a number-kinded AttributeValue.
func NewNumberValue(n float64) AttributeValue { return AttributeValue{Kind: "number", Num: n} }

// NewBoolValue builds a boolean-kinded AttributeValue.
func NewBoolValue(b bool) AttributeValue { return AttributeValue{Kind: "boolean", Bool: b} }

// Canonical renders the value as a fixed-order JSON object that always
// carries its type tag and payload; AttributeOne measures an attribute's
// serialized size on this form. A credential's signing form does not use
// it: it marshals the AttributeValue struct directly, which omits
// zero-valued payload fields.
func (v AttributeValue) Canonical() ([]byte, error) {
	switch v.Kind {
	case "string":
		return json.Marshal(struct {
			Kind string `json:"kind"`
			Str  string `json:"str"`
		}{v.Kind, v.Str})
	case "number":
		return json.Marshal(struct {
			Kind string  `json:"kind"`
			Num  float64 `json:"num"`
		}{v.Kind, v.Num})
	case "boolean":
		return json.Marshal(struct {
			Kind string `json:"kind"`
			Bool bool   `json:"bool"`
		}{v.Kind, v.Bool})
	default:
		return nil, vErr("attribute value: unknown kind " + v.Kind)
	}
}

// Attribute is a named, timestamped, size-bounded datum.
type Attribute struct {
	Name      string         `json:"name"`
	Value     AttributeValue `json:"value"`
	Timestamp int64          `json:"timestamp"` // milliseconds
}

// AttributeOne validates a single attribute against §3's rules: name
// pattern, serialized-value size cap, and timestamp window
// [now-10y, now+5min].
func AttributeOne(a Attribute, lim *config.Limits, now time.Time) error {
	if !attrNameRe.MatchString(a.Name) {
		return vErr("attribute name must match ^[A-Za-z0-9_]{1,64}$: " + a.Name)
	}
	encoded, err := a.Value.Canonical()
	if err != nil {
		return err
	}
	if len(encoded) > lim.AttributeValueMaxBytes {
		return vErr("attribute value exceeds max serialized size")
	}
	ts := time.UnixMilli(a.Timestamp)
	if ts.Before(now.Add(-tenYears)) || ts.After(now.Add(5*time.Minute)) {
		return vErr("attribute timestamp outside [now-10y, now+5min]")
	}
	return nil
}

// AttributeList validates a full attribute list: bounded count, unique
// names, every attribute individually valid.
func AttributeList(attrs []Attribute, lim *config.Limits, now time.Time) error {
	if len(attrs) < 1 || len(attrs) > lim.AttributeMaxCount {
		return vErr("attribute list must have between 1 and the configured max attributes")
	}
	seen := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		if err := AttributeOne(a, lim, now); err != nil {
			return err
		}
		if _, dup := seen[a.Name]; dup {
			return vErr("duplicate attribute name: " + a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}

// Expiration validates an optional credential expiresAt: it must be
// strictly in the future and no more than 10 years out.
func Expiration(expiresAtMS *int64, now time.Time) error {
	if expiresAtMS == nil {
		return nil
	}
	exp := time.UnixMilli(*expiresAtMS)
	if !exp.After(now) {
		return vErr("expiresAt must be strictly after now")
	}
	if exp.After(now.Add(tenYears)) {
		return vErr("expiresAt must be within 10 years of now")
	}
	return nil
}

// CircuitInputField validates a circuit-bound field element: non-negative
// and strictly less than BN254_PRIME.
func CircuitInputField(v *big.Int) error {
	if !zkfield.InField(v) {
		return vErr("circuit input must be a field element in [0, BN254_PRIME)")
	}
	return nil
}

// SanitizeString strips NUL bytes, trims surrounding whitespace, and
// enforces a maximum length.
func SanitizeString(s string, maxLen int) (string, error) {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		return "", vErr("string exceeds max length")
	}
	return s, nil
}
