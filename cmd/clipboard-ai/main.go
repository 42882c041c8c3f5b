package main

import (
	"fmt"
	"os"

	"github.com/Rrens/clipboard-ai/cmd/clipboard-ai/commands"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal; real deployments use config.json.
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
