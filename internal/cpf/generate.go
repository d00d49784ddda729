package cpf

import (
	"fmt"
	"math/rand"
	"time"
)

// GenerateDocument produces a complete synthetic assessment over the given
// taxonomy for seeding and demos. Each indicator is independently unassessed
// (value 0) with probability 0.2, otherwise rated uniformly in {1,2,3}.
// Pass a seeded rand.Rand for reproducible fixtures.
func GenerateDocument(rng *rand.Rand, tax Taxonomy) AssessmentDocument {
	now := time.Now().UTC().Format(time.RFC3339)
	doc := make(AssessmentDocument, tax.TotalIndicators())
	for _, key := range tax.Keys() {
		value := 0
		if rng.Float64() >= 0.2 {
			value = rng.Intn(MaxIndicatorValue) + 1
		}
		rec := IndicatorRecord{Value: value, LastUpdated: now}
		if value > 0 {
			rec.Notes = fmt.Sprintf("Auto-generated assessment for indicator %s", key)
		}
		doc[key] = rec
	}
	return doc
}
