//go:build !linux

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "halfqwerty-ibus: IBus is only available on Linux")
	os.Exit(1)
}
