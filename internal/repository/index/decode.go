package index

import (
	"math"
	"strconv"
	"time"
)

// Engines return stored values with their own typing: JSON numbers and
// bleve numerics arrive as float64, some drivers return numerals as strings.

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			return asString(t[0])
		}
	}
	return ""
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(math.Round(t))
	case int:
		return int64(t)
	case int64:
		return t
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return int64(math.Round(f))
		}
	}
	return 0
}

// asTime decodes unix milliseconds, falling back to RFC 3339 strings.
func asTime(v any) time.Time {
	if s, ok := v.(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts.UTC()
		}
	}
	ms := asInt64(v)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
