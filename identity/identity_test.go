// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package identity

import (
	"strings"
	"testing"
	"time"

	"github.com/luxfi/zkcred/audit"
	"github.com/luxfi/zkcred/config"
	"github.com/luxfi/zkcred/validate"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	lim := config.DefaultLimits()
	return New(lim, audit.New())
}

func TestRegisterAndGet(t *testing.T) {
	r := testRegistry()
	now := time.UnixMilli(1700000000000)
	pk := "0x" + strings.Repeat("11", 32)

	ident, err := r.Register("id_"+strings.Repeat("a", 32), pk, nil, now)
	require.NoError(t, err)
	require.Equal(t, pk, ident.PublicKey)

	got, err := r.Get(ident.ID)
	require.NoError(t, err)
	require.Equal(t, ident.ID, got.ID)
}

func TestDuplicatePublicKeyConflict(t *testing.T) {
	r := testRegistry()
	now := time.UnixMilli(1700000000000)
	pk := "0x" + strings.Repeat("22", 32)

	_, err := r.Register("id_"+strings.Repeat("a", 32), pk, nil, now)
	require.NoError(t, err)

	_, err = r.Register("id_"+strings.Repeat("b", 32), pk, nil, now)
	require.Error(t, err)
}

func TestFindByPublicKeyNotFound(t *testing.T) {
	r := testRegistry()
	_, err := r.FindByPublicKey("0x" + strings.Repeat("99", 32))
	require.Error(t, err)
}

func TestUpdateAttributesMerges(t *testing.T) {
	r := testRegistry()
	now := time.UnixMilli(1700000000000)
	pk := "0x" + strings.Repeat("33", 32)
	ident, err := r.Register("id_"+strings.Repeat("c", 32), pk,
		[]validate.Attribute{{Name: "age", Value: validate.NewNumberValue(20), Timestamp: now.UnixMilli()}}, now)
	require.NoError(t, err)

	updated, err := r.UpdateAttributes(ident.ID,
		[]validate.Attribute{{Name: "age", Value: validate.NewNumberValue(21), Timestamp: now.UnixMilli()},
			{Name: "country", Value: validate.NewStringValue("US"), Timestamp: now.UnixMilli()}}, now)
	require.NoError(t, err)
	require.Len(t, updated.Attributes, 2)
}

func TestHasAndList(t *testing.T) {
	r := testRegistry()
	now := time.UnixMilli(1700000000000)
	id := "id_" + strings.Repeat("d", 32)
	_, err := r.Register(id, "0x"+strings.Repeat("44", 32), nil, now)
	require.NoError(t, err)

	require.True(t, r.Has(id))
	require.False(t, r.Has("id_"+strings.Repeat("e", 32)))
	require.Len(t, r.List(), 1)
}
