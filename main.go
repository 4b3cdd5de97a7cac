// Cortex - Spreading-activation knowledge engine with graph analytics.
//
// Cortex stores knowledge notes as an energy-gated neuron graph, retrieves
// them by spreading activation, and analyzes project graphs with PageRank,
// betweenness, and Louvain community detection.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/cortex-go/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
