package main

import (
	"os"

	"github.com/meterwise/hotspot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
