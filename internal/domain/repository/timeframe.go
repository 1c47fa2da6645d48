package repository

import "SignalForge/internal/domain/models"

// IsValidTimeframe returns true if tf is a supported horizon bucket.
func IsValidTimeframe(tf models.Timeframe) bool {
	switch tf {
	case models.TimeframeShort, models.TimeframeMedium, models.TimeframeLong:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default horizon bucket.
func DefaultTimeframe() models.Timeframe { return models.TimeframeShort }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) models.Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := models.Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}
