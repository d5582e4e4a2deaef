package transport

import (
	"fmt"
	"math"
	"time"
)

// SecondsToMicros converts a fractional number of seconds into whole microseconds,
// the native timeout unit of the drivers. The conversion truncates: 1.0000009 s
// becomes 1000000 µs. Negative, NaN and infinite values are rejected.
func SecondsToMicros(seconds float64) (int64, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0, fmt.Errorf("timeout must be a non-negative number of seconds, got %v", seconds)
	}
	micros := math.Floor(seconds * 1_000_000)
	if micros > float64(math.MaxInt64/int64(time.Microsecond)) {
		return 0, fmt.Errorf("timeout of %v seconds is too large", seconds)
	}
	return int64(micros), nil
}

// MicrosToDuration converts a microsecond timeout into a time.Duration
func MicrosToDuration(micros int64) time.Duration {
	return time.Duration(micros) * time.Microsecond
}
