// cmd/pipeline/schema.go
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"research-pipeline/internal/schema"
	"research-pipeline/internal/stage"
	"research-pipeline/pkg/catalog"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [stage]",
	Short: "Print the published stage schemas",
	Long: `schema prints the full stage catalog, or the input and output
contracts of one named stage.`,
	Args: cobra.MaximumNArgs(1),
	RunE: printSchema,
}

func printSchema(cmd *cobra.Command, args []string) error {
	registry, err := schema.NewRegistry()
	if err != nil {
		return fmt.Errorf("build schema registry: %w", err)
	}
	cat, err := catalog.Build(version, registry)
	if err != nil {
		return fmt.Errorf("build stage catalog: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if len(args) == 0 {
		return enc.Encode(cat)
	}

	entry, ok := cat.Lookup(stage.Name(args[0]))
	if !ok {
		return fmt.Errorf("unknown stage %q, expected one of %v", args[0], stage.Order)
	}
	return enc.Encode(entry)
}
