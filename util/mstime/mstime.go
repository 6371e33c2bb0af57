// Package mstime holds the millisecond-precision time helpers used for
// block timestamps, vote sequences and online weight samples.
package mstime

import "time"

// Now returns the current local time truncated to milliseconds.
func Now() time.Time {
	return time.Now().Truncate(time.Millisecond)
}

// UnixMilli returns the current time in milliseconds since the epoch.
func UnixMilli() int64 {
	return time.Now().UnixMilli()
}

// UnixMilliToTime converts milliseconds since the epoch back to time.
func UnixMilliToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// TimeToUnixMilli converts t to milliseconds since the epoch.
func TimeToUnixMilli(t time.Time) int64 {
	return t.UnixMilli()
}
