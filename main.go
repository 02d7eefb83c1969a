package main

import (
	"os"

	"github.com/imishinist/mlops-pipeline/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
