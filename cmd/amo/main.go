package main

import (
	"os"

	"github.com/cgmoganedi/amo-gym-rayan/cmd/amo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
