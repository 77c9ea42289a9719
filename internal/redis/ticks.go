package redis

import "time"

// Expirations are stored as ticks: 100 nanosecond units. Absolute
// expirations count ticks since 0001-01-01 UTC so that other clients using
// the same hash layout read them unchanged.
const (
	ticksPerSecond = int64(time.Second / 100)
	// unixEpochTicks is the tick count of 1970-01-01 UTC.
	unixEpochTicks int64 = 621355968000000000
)

func toTicks(t time.Time) int64 {
	return unixEpochTicks + t.Unix()*ticksPerSecond + int64(t.Nanosecond())/100
}

func fromTicks(ticks int64) time.Time {
	rel := ticks - unixEpochTicks
	sec := rel / ticksPerSecond
	rem := rel % ticksPerSecond
	if rem < 0 {
		sec--
		rem += ticksPerSecond
	}
	return time.Unix(sec, rem*100).UTC()
}

func durationToTicks(d time.Duration) int64 {
	ticks := int64(d / 100)
	if ticks < 1 {
		return 1
	}
	return ticks
}

func ticksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks) * 100
}
