package main

import (
	"os"

	"github.com/dshills/vulnscout/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
