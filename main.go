package main

import (
	"os"

	"page_capture/presentation/terminal"
)

func main() {
	if err := terminal.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
