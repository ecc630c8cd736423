// Command policybot answers natural-language questions about a company's
// policy documents using retrieval-augmented generation over ingested PDFs.
package main

import (
	"os"

	"github.com/custodia-labs/policybot/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
