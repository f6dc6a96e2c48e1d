package main

import (
	"os"

	"github.com/sisensehq/go-sisense/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
