// Command transit classifies transit-signal candidates from Kepler and
// TESS catalog exports using the trained model bundles.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A local .env is a developer convenience; absence is normal.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
