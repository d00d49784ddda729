package cpf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		canonical     string
		category      int
		wantMalformed bool
	}{
		{name: "wire form", raw: "3-7", canonical: "3.7", category: 3},
		{name: "already canonical", raw: "3.7", canonical: "3.7", category: 3},
		{name: "two-digit category", raw: "10-4", canonical: "10.4", category: 10},
		{name: "two-digit indicator", raw: "1-10", canonical: "1.10", category: 1},
		{name: "letters", raw: "abc", wantMalformed: true},
		{name: "empty", raw: "", wantMalformed: true},
		{name: "missing indicator", raw: "3-", wantMalformed: true},
		{name: "missing category", raw: "-7", wantMalformed: true},
		{name: "double separator", raw: "3--7", wantMalformed: true},
		{name: "trailing junk", raw: "3-7x", wantMalformed: true},
		{name: "negative category", raw: "-3-7", wantMalformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canonical, category, err := NormalizeKey(tt.raw)
			if tt.wantMalformed {
				var malformed *MalformedKeyError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, tt.raw, malformed.Key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.canonical, canonical)
			assert.Equal(t, tt.category, category)
		})
	}
}

func TestNormalizeKeyIdempotent(t *testing.T) {
	// Both wire forms of the same indicator map to the same canonical key
	// and the same category bucket.
	c1, cat1, err := NormalizeKey("3-7")
	require.NoError(t, err)
	c2, cat2, err := NormalizeKey("3.7")
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
	assert.Equal(t, cat1, cat2)

	again, _, err := NormalizeKey(c1)
	require.NoError(t, err)
	assert.Equal(t, c1, again)
}

func TestWireKey(t *testing.T) {
	assert.Equal(t, "3-7", WireKey("3.7"))
	assert.Equal(t, "10-10", WireKey("10.10"))
}
