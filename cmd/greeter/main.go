package main

import (
	"os"

	"github.com/lacquerai/greeter/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
