//go:build unix

package ime

import (
	"time"

	"golang.org/x/sys/unix"
)

var processStart = time.Now()

// monotonicMillis reads CLOCK_MONOTONIC, which is unaffected by wall-clock
// adjustments. If the syscall fails the Go runtime's monotonic reading is
// used instead.
func monotonicMillis() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return time.Since(processStart).Milliseconds()
	}
	sec, nsec := ts.Unix()
	return sec*1000 + nsec/int64(time.Millisecond)
}
