package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// DayKeyLayout formats the calendar day buckets of reports
const DayKeyLayout = "2006-01-02"

// ParseDuration parses a duration string, returns default duration on error.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		// global logger: config is parsed before the logger is configured
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	return duration
}

// DayKey returns the UTC calendar day of t as YYYY-MM-DD
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyLayout)
}
