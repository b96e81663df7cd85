package main

import (
	"log/slog"
	"os"

	"github.com/fly-io/camctl/cmd/camctl/commands"
)

func main() {
	// Initialize structured logger with text format for readability
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	commands.Execute(level)
}
