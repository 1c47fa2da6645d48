package util

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// unix values above this are taken as milliseconds (year 5138 in seconds)
const millisThreshold = 1e11

// ParseTime tries RFC3339, RFC3339Nano, unix seconds and unix millis. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return FromUnix(f)
	}
	return time.Time{}, false
}

// FromUnix converts a positive unix timestamp in seconds or millis.
func FromUnix(v float64) (time.Time, bool) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, false
	}
	if v > millisThreshold {
		return time.UnixMilli(int64(v)).UTC(), true
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

// ParseTimeValue accepts the shapes a decoded JSON timestamp can take.
func ParseTimeValue(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		return ParseTime(t)
	case float64:
		return FromUnix(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return FromUnix(f)
	case int64:
		return FromUnix(float64(t))
	case int:
		return FromUnix(float64(t))
	case time.Time:
		return t, !t.IsZero()
	default:
		return time.Time{}, false
	}
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}
