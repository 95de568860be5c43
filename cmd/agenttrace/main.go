package main

import (
	"os"

	"github.com/agenttrace-labs/agenttrace/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
