// Command llmli is a local-first librarian for personal documents.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/llmli/internal/adapters/driving/cli"
)

func main() {
	// A missing .env is the common case.
	_ = godotenv.Load()

	if err := cli.Execute(context.Background(), build); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
