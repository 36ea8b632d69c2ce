// Command versatility estimates how stably each node of a graph is assigned
// to a community by a stochastic community detection method.
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
