package main

import (
	"os"

	"github.com/reglet-dev/capkit/cmd/capkit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
