package main

import (
	"fmt"
	"os"

	"gigbook/cmd/gigbookctl/commands"
)

var version = "dev"

func main() {
	if err := commands.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
