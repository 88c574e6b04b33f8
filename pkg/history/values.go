package history

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
)

// Trend is the colour coding of a reading compared with the next older
// session. Lower moisture readings are better.
type Trend int

const (
	// TrendNone means no comparison was possible
	TrendNone Trend = iota
	TrendUnchanged
	TrendImproved
	TrendWorsened
)

func (t Trend) String() string {
	switch t {
	case TrendUnchanged:
		return "unchanged"
	case TrendImproved:
		return "improved"
	case TrendWorsened:
		return "worsened"
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler
func (t Trend) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Trend) UnmarshalText(b []byte) error {
	switch string(b) {
	case "none", "":
		*t = TrendNone
	case "unchanged":
		*t = TrendUnchanged
	case "improved":
		*t = TrendImproved
	case "worsened":
		*t = TrendWorsened
	default:
		return fmt.Errorf("invalid trend: %s", b)
	}
	return nil
}

// ParseValue parses a reading entered as free text. Both "12.5" and "12,5"
// are accepted; anything else, including empty input, does not parse.
func ParseValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.Replace(s, ",", ".", 1)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// CompareValues classifies newer against older
func CompareValues(newer, older string) Trend {
	n, ok := ParseValue(newer)
	if !ok {
		return TrendNone
	}
	o, ok := ParseValue(older)
	if !ok {
		return TrendNone
	}

	switch {
	case n < o:
		return TrendImproved
	case n > o:
		return TrendWorsened
	}
	return TrendUnchanged
}

// NaturalLess orders strings with embedded numbers numerically, so that
// "Messpunkt 2" sorts before "Messpunkt 10". Case is ignored unless it is
// the only difference.
func NaturalLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return natural.Less(la, lb)
	}
	return natural.Less(a, b)
}

// SortNames sorts names in place using NaturalLess
func SortNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return NaturalLess(names[i], names[j])
	})
}
