package cpf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// CategoryAggregate summarizes one category of indicators present in the
// input. Risk averages bayesian scores over assessed indicators only;
// unassessed (value 0) indicators are excluded from the denominator, not
// counted as zero risk.
type CategoryAggregate struct {
	Risk       float64 `json:"risk"`
	Completion float64 `json:"completion"`
	Assessed   int     `json:"assessed"`
	Total      int     `json:"total"`
}

// Completion is the document-wide completion block of the aggregates.
type Completion struct {
	Percentage         float64 `json:"percentage"`
	AssessedIndicators int     `json:"assessed_indicators"`
}

// CategoryMap holds per-category aggregates keyed by category number.
// It marshals with keys in ascending numeric order (encoding/json would sort
// int keys as strings, putting "10" before "2") so serialized views diff
// deterministically.
type CategoryMap map[int]CategoryAggregate

func (m CategoryMap) MarshalJSON() ([]byte, error) {
	cats := make([]int, 0, len(m))
	for cat := range m {
		cats = append(cats, cat)
	}
	sort.Ints(cats)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range cats {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, `"%d":`, cat)
		agg, err := json.Marshal(m[cat])
		if err != nil {
			return nil, err
		}
		buf.Write(agg)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Aggregates groups the per-category and overall completion figures.
// Categories with no indicators in the input are omitted entirely: absent
// means "no data", not "zero risk".
type Aggregates struct {
	ByCategory CategoryMap `json:"by_category"`
	Completion Completion  `json:"completion"`
}

type categoryTally struct {
	total     int
	assessed  int
	totalRisk float64
}

// aggregate folds scored indicators into per-category and overall figures.
// catOf maps a canonical indicator key to its category number.
func aggregate(scores map[string]IndicatorScore, catOf map[string]int, records map[string]IndicatorRecord) Aggregates {
	tallies := map[int]*categoryTally{}
	for key, score := range scores {
		cat := catOf[key]
		t := tallies[cat]
		if t == nil {
			t = &categoryTally{}
			tallies[cat] = t
		}
		t.total++
		if records[key].Assessed() {
			t.assessed++
			t.totalRisk += score.BayesianScore
		}
	}

	byCategory := make(CategoryMap, len(tallies))
	totalAssessed := 0
	for cat, t := range tallies {
		agg := CategoryAggregate{Assessed: t.assessed, Total: t.total}
		if t.assessed > 0 {
			agg.Risk = t.totalRisk / float64(t.assessed)
		}
		if t.total > 0 {
			agg.Completion = float64(t.assessed) / float64(t.total) * 100
		}
		byCategory[cat] = agg
		totalAssessed += t.assessed
	}

	completion := Completion{AssessedIndicators: totalAssessed}
	if len(scores) > 0 {
		completion.Percentage = float64(totalAssessed) / float64(len(scores)) * 100
	}
	return Aggregates{ByCategory: byCategory, Completion: completion}
}
