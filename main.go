package main

import (
	"os"

	"github.com/geelink/docingest/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
