//go:build unix

package main

import (
	"context"
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

const pollIntervalMs = 100

// waitReadable blocks until r has input and reports whether it should be
// read. Files are polled so that a done ctx stops the reader without
// consuming another keystroke.
func waitReadable(ctx context.Context, r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return ctx.Err() == nil
	}
	fds := []unix.PollFd{{Fd: int32(f.Fd()), Events: unix.POLLIN}}
	for ctx.Err() == nil {
		n, err := unix.Poll(fds, pollIntervalMs)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil || n > 0 {
			// errors surface from Read
			return ctx.Err() == nil
		}
	}
	return false
}
