// Package main implements the agileflow server and command line client.
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agileflow: %v\n", err)
		return 1
	}
	return 0
}
