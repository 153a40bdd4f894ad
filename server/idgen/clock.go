package idgen

import "time"

const (
	tickDuration   = 100 * time.Nanosecond
	ticksPerSecond = uint64(time.Second / tickDuration)
	// gregorianToUnix is the number of ticks between 1582-10-15 and 1970-01-01.
	gregorianToUnix uint64 = 122192928000000000
)

// Clock yields the current tick: 100ns intervals since 1582-10-15.
// Implementations must never go backwards.
type Clock interface {
	Ticks() uint64
}

type monotonicClock struct {
	start  time.Time
	offset uint64
}

// NewMonotonicClock anchors the process monotonic clock to the gregorian epoch once,
// later wall clock adjustments don't affect it.
func NewMonotonicClock() Clock {
	start := time.Now()
	return &monotonicClock{start: start, offset: TimeToTicks(start)}
}

func (clk *monotonicClock) Ticks() uint64 {
	return clk.offset + uint64(time.Since(clk.start)/tickDuration)
}

// TicksToTime converts a tick value back to wall time.
func TicksToTime(ticks uint64) time.Time {
	secs := int64(ticks/ticksPerSecond) - int64(gregorianToUnix/ticksPerSecond)
	nsecs := int64(ticks%ticksPerSecond) * int64(tickDuration)
	return time.Unix(secs, nsecs).UTC()
}

// TimeToTicks is the inverse of TicksToTime for times after 1582-10-15.
func TimeToTicks(t time.Time) uint64 {
	secs := uint64(t.Unix() + int64(gregorianToUnix/ticksPerSecond))
	return secs*ticksPerSecond + uint64(t.Nanosecond())/uint64(tickDuration)
}
