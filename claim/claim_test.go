// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package claim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDJB2Deterministic(t *testing.T) {
	require.Equal(t, DJB2("hello"), DJB2("hello"))
	require.NotEqual(t, DJB2("hello"), DJB2("world"))
}

func TestAgeOverInputsSatisfiesThreshold(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	inputs, err := e.GenerateCircuitInputs(AgeOver{Threshold: 18}, AgeWitness{Age: 25, Salt: 42}, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), inputs["isOver"].Int64())
}

func TestAgeOverInputsBelowThreshold(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	inputs, err := e.GenerateCircuitInputs(AgeOver{Threshold: 21}, AgeWitness{Age: 18, Salt: 7}, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(0), inputs["isOver"].Int64())
}

func TestAgeOverRejectsOutOfRange(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	_, err = e.GenerateCircuitInputs(AgeOver{Threshold: 200}, AgeWitness{Age: 25}, time.Now())
	require.Error(t, err)
}

func TestLicenseValidMatchesType(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	now := time.UnixMilli(1700000000000)

	inputs, err := e.GenerateCircuitInputs(LicenseValid{LicenseType: "commercial-pilot"},
		LicenseWitness{LicenseType: "commercial-pilot", ExpirationDate: now.Add(time.Hour).UnixMilli(), Salt: 99}, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), inputs["isValid"].Int64())
}

func TestLicenseValidRejectsExpired(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	now := time.UnixMilli(1700000000000)

	inputs, err := e.GenerateCircuitInputs(LicenseValid{LicenseType: "commercial-pilot"},
		LicenseWitness{LicenseType: "commercial-pilot", ExpirationDate: now.Add(-time.Hour).UnixMilli(), Salt: 1}, now)
	require.NoError(t, err)
	require.Equal(t, int64(0), inputs["isValid"].Int64())
}

func TestClearanceLevelHasAccess(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	inputs, err := e.GenerateCircuitInputs(ClearanceLevel{RequiredLevel: 5}, ClearanceWitness{ClearanceLevel: 5, Salt: 3}, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), inputs["hasAccess"].Int64())
}

func TestRoleAuthorizationMismatch(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	inputs, err := e.GenerateCircuitInputs(RoleAuthorization{Role: "admin"}, RoleWitness{Role: "guest", Salt: 1}, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(0), inputs["isAuthorized"].Int64())
}

func TestWrongWitnessTypeRejected(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	_, err = e.GenerateCircuitInputs(AgeOver{Threshold: 18}, RoleWitness{Role: "x"}, time.Now())
	require.Error(t, err)
}

func TestPoseidonHashIsDeterministic(t *testing.T) {
	h, err := NewHasher()
	require.NoError(t, err)
	a, err := h.Hash(bi(1), bi(2))
	require.NoError(t, err)
	b, err := h.Hash(bi(1), bi(2))
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := h.Hash(bi(2), bi(1))
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}
