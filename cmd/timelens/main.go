package main

import (
	"os"

	"github.com/felixgeelhaar/timelens/internal/infrastructure/cli"
)

func main() {
	os.Exit(cli.Execute())
}
