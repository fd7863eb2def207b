package main

import (
	"os"

	"github.com/solatis/qbfilter/cmd/qbfilter/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
