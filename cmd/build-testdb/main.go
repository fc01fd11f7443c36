package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wbrown/janus-aql/aql/storage"
)

func main() {
	configType := flag.String("config", "default", "Config type: default, medium, or large")
	output := flag.String("out", "", "Output path (overrides the config's path)")
	flag.Parse()

	var config storage.TestDataConfig
	switch *configType {
	case "default":
		config = storage.DefaultHashConfig()
	case "medium":
		config = storage.MediumHashConfig()
	case "large":
		config = storage.LargeHashConfig()
	default:
		fmt.Fprintf(os.Stderr, "Unknown config type: %s (use 'default', 'medium', or 'large')\n", *configType)
		os.Exit(1)
	}
	if *output != "" {
		config.OutputPath = *output
	}

	fmt.Printf("Building test database: %s\n", config.OutputPath)
	fmt.Printf("  Collection: %s\n", config.Collection)
	fmt.Printf("  Values of a: %d\n", config.A)
	fmt.Printf("  Values of b: %d\n", config.B)
	fmt.Printf("  Total documents: %d\n", config.A*config.B)
	fmt.Println()

	db, err := storage.BuildTestDatabase(config, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := storage.WriteStats(db, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get stats: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n✅ Done! Query it with:")
	fmt.Printf("   aql -db %s -i\n", config.OutputPath)
}
