package utils

import "time"

// timestampLayout is the wire format for envelope timestamps:
// UTC, second precision.
const timestampLayout = "2006-01-02 15:04:05"

// FormatUTCTimestamp renders t in UTC at second precision.
func FormatUTCTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// UTCTimestamp renders the current time in UTC at second precision.
func UTCTimestamp() string {
	return FormatUTCTimestamp(time.Now())
}
