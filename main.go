package main

import (
	"os"

	"github.com/lingualoop/lingualoop/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
