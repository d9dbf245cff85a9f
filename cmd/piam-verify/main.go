package main

import (
	"fmt"
	"os"

	"github.com/slysik/piam-dashboard/internal/cli"
)

func main() {
	code, err := cli.RunVerify(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(code)
}
