// cmd/main.go is the parkctl entry point.
package main

import (
	"fmt"
	"os"

	"github.com/Shivanand-hulikatti/parking-management/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
