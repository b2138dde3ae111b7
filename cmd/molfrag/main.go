// CLI entry point for MolFrag.
package main

import (
	"os"

	"github.com/turtacn/MolFrag/internal/interfaces/cli"
)

func main() {
	// Execute prints the error itself.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
