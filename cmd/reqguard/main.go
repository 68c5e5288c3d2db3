package main

import (
	"os"

	"github.com/tkingovr/reqguard/cmd/reqguard/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
