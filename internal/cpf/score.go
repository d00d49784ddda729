package cpf

import "fmt"

// Raw indicator values are a 0-3 scale: 0 means "not applicable / not
// assessed", 1-3 is an ascending severity rating on an assessed indicator.
const MaxIndicatorValue = 3

// IndicatorRecord is one operator-entered indicator as persisted in the
// assessment document.
type IndicatorRecord struct {
	Value       int    `json:"value"`
	Notes       string `json:"notes,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// Assessed reports whether the indicator carries a rating.
func (r IndicatorRecord) Assessed() bool { return r.Value > 0 }

// NoteContainer wraps operator notes in the structured shape report and
// dashboard renderers expect. Responses is always non-nil so the serialized
// form is {} rather than null when no note exists.
type NoteContainer struct {
	Responses map[string]string `json:"responses"`
}

// RawData carries the note container under the key renderers read it from.
type RawData struct {
	ClientConversation NoteContainer `json:"client_conversation"`
}

// IndicatorScore is the derived, normalized form of one indicator.
// BayesianScore is exactly one of {0, 1/3, 2/3, 1}.
type IndicatorScore struct {
	BayesianScore float64 `json:"bayesian_score"`
	RawData       RawData `json:"raw_data"`
	LastUpdated   string  `json:"last_updated,omitempty"`
}

// InvalidIndicatorValueError reports a raw value outside [0,3]. Values are
// never clamped: an out-of-range value means corrupted upstream data and must
// fail the hosting request loudly.
type InvalidIndicatorValueError struct {
	Key   string
	Value int
}

func (e *InvalidIndicatorValueError) Error() string {
	return fmt.Sprintf("cpf: indicator %q has value %d outside [0,%d]", e.Key, e.Value, MaxIndicatorValue)
}

// ScoreIndicator derives the normalized score for one indicator. The key is
// used only for error reporting.
func ScoreIndicator(key string, rec IndicatorRecord) (IndicatorScore, error) {
	if rec.Value < 0 || rec.Value > MaxIndicatorValue {
		return IndicatorScore{}, &InvalidIndicatorValueError{Key: key, Value: rec.Value}
	}
	score := IndicatorScore{
		RawData:     RawData{ClientConversation: NoteContainer{Responses: map[string]string{}}},
		LastUpdated: rec.LastUpdated,
	}
	if rec.Value > 0 {
		score.BayesianScore = float64(rec.Value) / MaxIndicatorValue
	}
	if rec.Notes != "" {
		score.RawData.ClientConversation.Responses["note"] = rec.Notes
	}
	return score, nil
}
