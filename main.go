package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	app "tictactoe-rooms/internal"
	"tictactoe-rooms/internal/config"
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	conf := loadConfig()
	logger := newLogger(conf.LogLevel)

	if err := app.RunApp(logger, conf); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

// loadConfig reads config.yml next to the working directory, with
// environment variables taking over when the file is absent.
func loadConfig() *config.Config {
	baseDir, err := os.Getwd()
	if err != nil {
		panic(fmt.Errorf("failed to get current directory: %w", err))
	}

	return config.MustLoad(filepath.Join(baseDir, "config.yml"))
}

// newLogger builds the process-wide JSON logger. An unknown level name
// falls back to info rather than silently logging everything.
func newLogger(levelName string) *slog.Logger {
	level := slog.LevelInfo

	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
