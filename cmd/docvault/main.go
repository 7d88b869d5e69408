package main

import (
	"os"

	"github.com/docworks-io/docvault/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
