// Package main provides the CLI entrypoint for meditate.
package main

import (
	"os"
)

func main() {
	os.Exit(Execute())
}
