package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digestFixture(t *testing.T) []Operation {
	t.Helper()
	ops, err := UnmarshalOperations([]byte(`[
		{"type": "filter", "table": "orders", "conditions": [{"column": "金额", "op": "=", "value": 1000}], "logic": "AND"},
		{"type": "take", "table": "orders", "rows": 5}
	]`))
	require.NoError(t, err)
	return ops
}

func TestDigestDeterminism(t *testing.T) {
	ops := digestFixture(t)
	tables := map[string]any{"f1": map[string]any{"filename": "a.xlsx"}}

	d1, err := Digest(ops, tables)
	require.NoError(t, err)
	d2, err := Digest(digestFixture(t), tables)
	require.NoError(t, err)

	assert.Equal(t, d1, d2, "Digest must be deterministic")
	assert.Len(t, d1, 64, "SHA-256 hex is 64 characters")
}

func TestDigestChangesWithInput(t *testing.T) {
	ops := digestFixture(t)
	base, err := Digest(ops, nil)
	require.NoError(t, err)

	reordered, err := Digest([]Operation{ops[1], ops[0]}, nil)
	require.NoError(t, err)
	withTables, err := Digest(ops, map[string]any{"f1": "x"})
	require.NoError(t, err)
	fewer, err := Digest(ops[:1], nil)
	require.NoError(t, err)

	assert.NotEqual(t, base, reordered, "step order is significant")
	assert.NotEqual(t, base, withTables, "table metadata is part of the snapshot")
	assert.NotEqual(t, base, fewer)
}

func TestDigestIgnoresKeyOrderAndWhitespace(t *testing.T) {
	a, err := UnmarshalOperations([]byte(`[{"type":"take","rows":3,"table":"t"}]`))
	require.NoError(t, err)
	b, err := UnmarshalOperations([]byte(`[ { "table" : "t", "rows" : 3, "type" : "take" } ]`))
	require.NoError(t, err)

	da, err := Digest(a, nil)
	require.NoError(t, err)
	db, err := Digest(b, nil)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"a":1}`)
	assert.NotEqual(t, hashWithDomain("x", data), hashWithDomain("y", data))
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")),
		"null separator prevents boundary ambiguity")
}
