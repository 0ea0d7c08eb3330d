//go:build !unix

package ime

import "time"

var processStart = time.Now()

// monotonicMillis uses the monotonic component carried by time.Time.
func monotonicMillis() int64 {
	return time.Since(processStart).Milliseconds()
}
