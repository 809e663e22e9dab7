package main

import (
	"os"

	"moneytrack/internal/cli"
	"moneytrack/internal/commands"
	"moneytrack/internal/config"
)

func main() {
	cli.LoadEnvFile()

	if err := commands.NewRootCommand(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}
