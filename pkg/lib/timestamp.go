package lib

import "time"

// TimestampLayout renders HH:MM:SS.mmm. Go truncates fractional seconds.
const TimestampLayout = "15:04:05.000"

// Timestamp returns the current local time formatted for log correlation.
func Timestamp() string {
	return FormatTimestamp(time.Now())
}

// FormatTimestamp formats t in its own location.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
