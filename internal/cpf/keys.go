package cpf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Indicator keys arrive in two wire forms: the assessment editor persists
// "3-7" while dashboards and reports address "3.7". The dotted form is
// canonical; everything downstream of NormalizeKey sees only that.

var keyPattern = regexp.MustCompile(`^(\d+)[-.](\d+)$`)

// MalformedKeyError reports an indicator key that is neither "<cat>-<ind>"
// nor "<cat>.<ind>". It is never skipped silently: a dropped indicator would
// skew completion and maturity statistics with no visible signal.
type MalformedKeyError struct {
	Key string
}

func (e *MalformedKeyError) Error() string {
	return fmt.Sprintf("cpf: malformed indicator key %q", e.Key)
}

// NormalizeKey converts an indicator key in either wire form to the canonical
// dotted form and extracts its category number. The category is taken
// verbatim; it is not validated against the taxonomy range.
func NormalizeKey(raw string) (canonical string, category int, err error) {
	m := keyPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", 0, &MalformedKeyError{Key: raw}
	}
	category, err = strconv.Atoi(m[1])
	if err != nil {
		return "", 0, &MalformedKeyError{Key: raw}
	}
	return m[1] + "." + m[2], category, nil
}

// CanonicalKey is NormalizeKey without the category extraction, for callers
// that only need the dotted form.
func CanonicalKey(raw string) (string, error) {
	canonical, _, err := NormalizeKey(raw)
	return canonical, err
}

// WireKey converts a canonical dotted key back to editor wire form.
func WireKey(canonical string) string {
	return strings.Replace(canonical, ".", "-", 1)
}
