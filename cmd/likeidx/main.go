// Command likeidx builds a positional bitmap index over a column of short
// strings and serves LIKE-pattern queries against it from the shell,
// standing in for the SQL planner's "call into the index" boundary (§6)
// with a CLI a human can drive directly.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
