//go:build !unix

package main

import (
	"context"
	"io"
)

// waitReadable reports whether ctx is still live. Without poll a reader
// already blocked in Read returns after the next keystroke.
func waitReadable(ctx context.Context, _ io.Reader) bool {
	return ctx.Err() == nil
}
