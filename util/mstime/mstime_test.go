package mstime

import (
	"testing"
	"time"
)

func TestMillisecondRoundTrip(t *testing.T) {
	original := time.Date(2024, 3, 14, 15, 9, 26, 535897932, time.UTC)
	ms := TimeToUnixMilli(original)
	restored := UnixMilliToTime(ms)
	if !restored.Equal(original.Truncate(time.Millisecond)) {
		t.Fatalf("TestMillisecondRoundTrip: expected %s but got %s", original.Truncate(time.Millisecond), restored)
	}
	if Now().Nanosecond()%int(time.Millisecond) != 0 {
		t.Fatalf("TestMillisecondRoundTrip: Now() carries sub-millisecond precision")
	}
}
