// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package credential

import (
	"strings"
	"testing"
	"time"

	"github.com/luxfi/zkcred/audit"
	"github.com/luxfi/zkcred/config"
	"github.com/luxfi/zkcred/validate"
	"github.com/stretchr/testify/require"
)

func testIssuer(t *testing.T) *Issuer {
	t.Helper()
	iss, err := New("acme-corp", nil, config.DefaultLimits(), audit.New())
	require.NoError(t, err)
	return iss
}

func TestIssueAndVerify(t *testing.T) {
	iss := testIssuer(t)
	now := time.UnixMilli(1700000000000)
	attrs := []validate.Attribute{
		{Name: "age", Value: validate.NewNumberValue(30), Timestamp: now.UnixMilli()},
	}

	cred, err := iss.Issue("id_"+strings.Repeat("a", 32), attrs, nil, now)
	require.NoError(t, err)
	require.True(t, iss.Verify(cred))
	require.True(t, iss.IsValid(cred, now))
}

func TestTamperedCredentialFailsVerify(t *testing.T) {
	iss := testIssuer(t)
	now := time.UnixMilli(1700000000000)
	attrs := []validate.Attribute{{Name: "age", Value: validate.NewNumberValue(30), Timestamp: now.UnixMilli()}}
	cred, err := iss.Issue("id_"+strings.Repeat("a", 32), attrs, nil, now)
	require.NoError(t, err)

	cred.Attributes[0].Value = validate.NewNumberValue(99)
	require.False(t, iss.Verify(cred))
}

func TestExpiration(t *testing.T) {
	iss := testIssuer(t)
	now := time.UnixMilli(1700000000000)
	expiry := now.Add(time.Hour).UnixMilli()
	attrs := []validate.Attribute{{Name: "age", Value: validate.NewNumberValue(30), Timestamp: now.UnixMilli()}}

	cred, err := iss.Issue("id_"+strings.Repeat("a", 32), attrs, &expiry, now)
	require.NoError(t, err)
	require.False(t, IsExpired(cred, now))
	require.True(t, IsExpired(cred, now.Add(2*time.Hour)))
	require.False(t, iss.IsValid(cred, now.Add(2*time.Hour)))
}

func TestForSubjectAndCount(t *testing.T) {
	iss := testIssuer(t)
	now := time.UnixMilli(1700000000000)
	subject := "id_" + strings.Repeat("b", 32)
	attrs := []validate.Attribute{{Name: "age", Value: validate.NewNumberValue(30), Timestamp: now.UnixMilli()}}

	for i := 0; i < 3; i++ {
		_, err := iss.Issue(subject, attrs, nil, now)
		require.NoError(t, err)
	}

	require.Equal(t, 3, iss.CountForSubject(subject))
	creds, err := iss.ForSubject(subject, 10, 0)
	require.NoError(t, err)
	require.Len(t, creds, 3)
}

func TestDifferentIssuerRejectsSignature(t *testing.T) {
	issA := testIssuer(t)
	issB, err := New("other-corp", nil, config.DefaultLimits(), audit.New())
	require.NoError(t, err)

	now := time.UnixMilli(1700000000000)
	attrs := []validate.Attribute{{Name: "age", Value: validate.NewNumberValue(30), Timestamp: now.UnixMilli()}}
	cred, err := issA.Issue("id_"+strings.Repeat("a", 32), attrs, nil, now)
	require.NoError(t, err)

	require.False(t, issB.Verify(cred))
}
