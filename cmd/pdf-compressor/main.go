package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd := newRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
