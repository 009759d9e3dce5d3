package main

import (
	"os"

	"github.com/Jessiellen/shareup-app/cmd/shareup/commands"
)

// Set during build.
var version = "dev"

func main() {
	if err := commands.Execute(version); err != nil {
		os.Exit(1)
	}
}
