// cmd/tools/schema-export/main.go

// schema-export writes the stage catalog, with every input and output
// contract, to a JSON file for external consumers.
package main

import (
	"flag"
	"fmt"
	"os"

	"research-pipeline/internal/schema"
	"research-pipeline/pkg/catalog"
)

func main() {
	out := flag.String("out", "stage-catalog.json", "output file path")
	version := flag.String("version", "dev", "catalog version stamp")
	flag.Parse()

	registry, err := schema.NewRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build schema registry: %v\n", err)
		os.Exit(1)
	}

	cat, err := catalog.Build(*version, registry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build stage catalog: %v\n", err)
		os.Exit(1)
	}

	if err := cat.WriteFile(*out); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d stage entries to %s\n", len(cat.Stages), *out)
}
