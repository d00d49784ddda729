package cpf

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDocumentShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	doc := GenerateDocument(rng, DefaultTaxonomy)
	require.Len(t, doc, 100)

	for key, rec := range doc {
		_, _, err := NormalizeKey(key)
		require.NoError(t, err, "key %q", key)
		assert.GreaterOrEqual(t, rec.Value, 0)
		assert.LessOrEqual(t, rec.Value, MaxIndicatorValue)
		if rec.Value > 0 {
			assert.NotEmpty(t, rec.Notes)
		} else {
			assert.Empty(t, rec.Notes)
		}
		assert.NotEmpty(t, rec.LastUpdated)
	}
}

func TestGenerateDocumentFeedsTransform(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	doc := GenerateDocument(rng, DefaultTaxonomy)

	v, err := Transform(testOrg, doc, nil)
	require.NoError(t, err)
	assert.Len(t, v.Indicators, 100)
	assert.Len(t, v.Aggregates.ByCategory, 10)

	s, err := Summarize(doc)
	require.NoError(t, err)
	assert.Equal(t, 100, s.TotalIndicators)
	assert.Equal(t, s.AssessedIndicators, v.Aggregates.Completion.AssessedIndicators)
}

func TestGenerateDocumentSmallTaxonomy(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tax := Taxonomy{Categories: 2, IndicatorsPerCategory: 3}
	doc := GenerateDocument(rng, tax)
	require.Len(t, doc, 6)

	v, err := Transform(testOrg, doc, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(v.Aggregates.ByCategory), 2)
}

func TestGenerateDocumentSeededReproducible(t *testing.T) {
	a := GenerateDocument(rand.New(rand.NewSource(11)), DefaultTaxonomy)
	b := GenerateDocument(rand.New(rand.NewSource(11)), DefaultTaxonomy)
	for key := range a {
		assert.Equal(t, a[key].Value, b[key].Value, "key %q", key)
	}
}
