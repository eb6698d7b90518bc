// Command paramctl resolves, publishes and applies parameter sets against a
// parameter store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Environ(), os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "paramctl:", err)
		os.Exit(1)
	}
}
