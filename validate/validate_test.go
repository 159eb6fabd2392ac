// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/luxfi/zkcred/config"
	"github.com/stretchr/testify/require"
)

func TestPublicKey(t *testing.T) {
	require.NoError(t, PublicKey("0x"+strings.Repeat("11", 32)))
	require.NoError(t, PublicKey(strings.Repeat("ab", 32)))
	require.Error(t, PublicKey("not-hex"))
	require.Error(t, PublicKey("0x1234"))
}

func TestIdentityAndCredentialID(t *testing.T) {
	require.NoError(t, IdentityID("id_"+strings.Repeat("a", 32)))
	require.Error(t, IdentityID("id_short"))
	require.NoError(t, CredentialID("cred_"+strings.Repeat("b", 32)))
	require.Error(t, CredentialID("cred_"+strings.Repeat("b", 31)))
}

func TestAttributeValueOversize(t *testing.T) {
	lim := config.DefaultLimits()
	now := time.UnixMilli(1700000000000)
	big := NewStringValue(strings.Repeat("x", lim.AttributeValueMaxBytes))
	err := AttributeOne(Attribute{Name: "bio", Value: big, Timestamp: now.UnixMilli()}, lim, now)
	require.Error(t, err)
}

func TestAttributeListDuplicateNames(t *testing.T) {
	lim := config.DefaultLimits()
	now := time.UnixMilli(1700000000000)
	attrs := []Attribute{
		{Name: "age", Value: NewNumberValue(25), Timestamp: now.UnixMilli()},
		{Name: "age", Value: NewNumberValue(26), Timestamp: now.UnixMilli()},
	}
	require.Error(t, AttributeList(attrs, lim, now))
}

func TestExpirationBoundary(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	exact := now.UnixMilli()
	require.Error(t, Expiration(&exact, now), "expiresAt == now must be rejected")

	future := now.Add(time.Hour).UnixMilli()
	require.NoError(t, Expiration(&future, now))

	tooFar := now.Add(11 * 365 * 24 * time.Hour).UnixMilli()
	require.Error(t, Expiration(&tooFar, now))
}
