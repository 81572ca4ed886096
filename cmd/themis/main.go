package main

import (
	"os"

	"themis/cmd/themis/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
