package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DatetimeLayouts are the layouts a datetime cell may use, tried in
// order. Go's parser tolerates missing zero-padding and fractional
// seconds, so this short list covers the common CSV export formats.
var DatetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
}

var booleanLiterals = map[string]bool{
	"true": true, "t": true, "yes": true,
	"false": false, "f": false, "no": false,
}

// CoerceValue parses a raw CSV cell into the JSON-ready value for t.
// String and unknown columns pass through untouched. For the typed
// columns an empty cell coerces to null; an unparseable one reports
// ok=false and the caller decides what to do with the row.
func CoerceValue(t PropertyType, raw string) (any, bool) {
	switch t {
	case TypeBoolean, TypeInteger, TypeNumber, TypeDatetime:
	default:
		return raw, true
	}

	v := strings.TrimSpace(raw)
	if v == "" {
		return nil, true
	}

	switch t {
	case TypeBoolean:
		if b, ok := booleanLiterals[strings.ToLower(v)]; ok {
			return b, true
		}
	case TypeInteger:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, true
		}
	case TypeNumber:
		f, err := strconv.ParseFloat(v, 64)
		// NaN and Inf parse fine but have no JSON representation.
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	case TypeDatetime:
		for _, layout := range DatetimeLayouts {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts.Format(time.RFC3339Nano), true
			}
		}
	}
	return nil, false
}

// Accepts reports whether raw parses as t. Inference uses this to test
// sampled values against each candidate type.
func (t PropertyType) Accepts(raw string) bool {
	_, ok := CoerceValue(t, raw)
	return ok
}
