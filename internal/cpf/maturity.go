package cpf

import (
	"math"
	"time"
)

// Level is the discrete maturity classification of an assessment.
type Level string

const (
	LevelInitial    Level = "Initial"
	LevelRepeatable Level = "Repeatable"
	LevelDefined    Level = "Defined"
	LevelManaged    Level = "Managed"
	LevelOptimized  Level = "Optimized"
)

// ClassifyMaturity maps a 0-100 maturity score to its level. Bands are
// inclusive on their lower bound: exactly 20 is Repeatable, exactly 80 is
// Optimized. Callers must pass the unrounded score; classifying a
// display-rounded value flips labels at band edges (79.6 displays as 80 but
// is still Managed).
func ClassifyMaturity(score float64) Level {
	switch {
	case score >= 80:
		return LevelOptimized
	case score >= 60:
		return LevelManaged
	case score >= 40:
		return LevelDefined
	case score >= 20:
		return LevelRepeatable
	default:
		return LevelInitial
	}
}

// Summary is the overall maturity block cached into an assessment's metadata
// on every write and shown on dashboards. Numeric fields are rounded to whole
// percentages for display; MaturityLevel is classified from the unrounded
// score before rounding.
type Summary struct {
	CompletionPercentage int       `json:"completion_percentage"`
	MaturityScore        int       `json:"maturity_score"`
	MaturityLevel        Level     `json:"maturity_level"`
	RiskScore            int       `json:"risk_score"`
	TotalIndicators      int       `json:"total_indicators"`
	AssessedIndicators   int       `json:"assessed_indicators"`
	LastCalculated       time.Time `json:"last_calculated"`
}

// Summarize computes the maturity summary for a raw assessment document.
// An empty document is not an error: it yields a zeroed Initial summary so a
// blank assessment still renders. Malformed keys and out-of-range values fail
// the whole computation with no partial output.
func Summarize(doc AssessmentDocument) (Summary, error) {
	totalValue := 0
	assessed := 0
	for key, rec := range doc {
		if _, _, err := NormalizeKey(key); err != nil {
			return Summary{}, err
		}
		if rec.Value < 0 || rec.Value > MaxIndicatorValue {
			return Summary{}, &InvalidIndicatorValueError{Key: key, Value: rec.Value}
		}
		if rec.Assessed() {
			assessed++
			totalValue += rec.Value
		}
	}

	s := Summary{
		TotalIndicators:    len(doc),
		AssessedIndicators: assessed,
		MaturityLevel:      LevelInitial,
		LastCalculated:     time.Now().UTC(),
	}
	if len(doc) > 0 {
		s.CompletionPercentage = int(math.Round(float64(assessed) / float64(len(doc)) * 100))
	}
	if assessed > 0 {
		maturity := float64(totalValue) / float64(MaxIndicatorValue*assessed) * 100
		s.MaturityLevel = ClassifyMaturity(maturity)
		s.MaturityScore = int(math.Round(maturity))
	}
	s.RiskScore = 100 - s.MaturityScore
	return s, nil
}
