package main

import (
	"os"

	"github.com/dmitrijs2005/tripflow/internal/client/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
