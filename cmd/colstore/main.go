package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
)

var version = "0.1.0"

// Exit codes. Data errors (unreadable, malformed or inconsistent shards) are
// kept apart from usage and configuration mistakes.
const (
	exitUsage = 1
	exitData  = 2
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.IsFatal(err) {
		return exitData
	}
	return exitUsage
}
