package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInsertPolicy(t *testing.T) {
	for _, p := range []InsertPolicy{InsertFromResponse, InsertFromRealtime} {
		got, err := ParseInsertPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := ParseInsertPolicy("")
	require.NoError(t, err)
	assert.Equal(t, InsertFromResponse, got)

	_, err = ParseInsertPolicy("eventually")
	assert.Error(t, err)
}

func TestParseFilterMode(t *testing.T) {
	for _, m := range []FilterMode{FilterClientSide, FilterServerSide} {
		got, err := ParseFilterMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := ParseFilterMode("both")
	assert.Error(t, err)
}
