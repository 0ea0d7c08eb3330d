//go:build unix

package main

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestReadBytesStopsWithoutConsuming(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := readBytes(ctx, r)

	w.Write([]byte("a"))
	select {
	case b := <-ch:
		if b != 'a' {
			t.Fatalf("got %q, want 'a'", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no byte read")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("unexpected byte after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop after cancel")
	}

	// input typed afterwards is left for the next reader
	w.Write([]byte("z"))
	buf := make([]byte, 1)
	if _, err := r.Read(buf); err != nil || buf[0] != 'z' {
		t.Errorf("Read = %q, %v; want 'z'", buf, err)
	}
}
