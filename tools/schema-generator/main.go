package main

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/mattsolo1/lmbench/pkg/benchmark"
	"github.com/mattsolo1/lmbench/pkg/config"
)

func main() {
	outDir := "."
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}

	schema := config.Schema()
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("Error marshaling config schema: %v", err)
	}
	write(filepath.Join(outDir, "lmbench-config.schema.json"), data)

	// The experiment schema is hand written; re-indent it so both files
	// look the same.
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(benchmark.ExperimentSchema), "", "  "); err != nil {
		log.Fatalf("Error formatting experiment schema: %v", err)
	}
	write(filepath.Join(outDir, "lmbench-experiment.schema.json"), buf.Bytes())
}

func write(path string, data []byte) {
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		log.Fatalf("Error writing %s: %v", path, err)
	}
	log.Printf("Successfully generated schema at %s", path)
}
