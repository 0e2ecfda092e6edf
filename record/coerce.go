package record

import (
	"strconv"
	"strings"
)

// The source data is scraped and hand-curated, so numeric columns routinely
// contain garbage. These helpers make the coercion policy explicit: every
// parse returns the value plus an ok flag so callers can count and log
// coercions instead of silently swallowing them.

// FloatOr parses s as a float, returning def and ok=false when s is empty
// or unparseable.
func FloatOr(s string, def float64) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def, false
	}
	return v, true
}

// IntOr parses s as an integer, returning def and ok=false when s is empty
// or unparseable. Values written as floats ("1200000.0") are accepted and
// truncated, since spreadsheet exports often render integer columns that way.
func IntOr(s string, def int64) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), true
	}
	return def, false
}

// Clamp01 parses s as a confidence score and clamps it into [0,1].
// Unparseable or empty input yields def. The second return reports whether
// the stored value differs from the raw input (clamped or defaulted), so
// the coercion can be surfaced in import summaries.
func Clamp01(s string, def float64) (float64, bool) {
	v, ok := FloatOr(s, def)
	if !ok {
		return def, true
	}
	switch {
	case v < 0:
		return 0, true
	case v > 1:
		return 1, true
	default:
		return v, false
	}
}
