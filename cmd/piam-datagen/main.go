package main

import (
	"fmt"
	"os"

	"github.com/slysik/piam-dashboard/internal/cli"
)

func main() {
	if err := cli.RunDatagen(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
