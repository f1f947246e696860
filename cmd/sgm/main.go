package main

import (
	"os"

	"github.com/stereopipe/sgm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
