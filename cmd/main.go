package main

import (
	"os"

	"github.com/BesuglovS/akaquiz/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
