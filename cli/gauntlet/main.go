package main

import (
	"os"

	gauntletcmder "github.com/papercomputeco/gauntlet/cmd/gauntlet"
)

func main() {
	cmd := gauntletcmder.NewGauntletCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
