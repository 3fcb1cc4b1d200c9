package main

import (
	"os"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
