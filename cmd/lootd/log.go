package main

import (
	"os"

	"github.com/decred/slog"
)

// backend is the single in-memory logging backend every subsystem logger
// writes through, the same one-backend-many-loggers wiring every
// decred-lineage binary uses.
var backend = slog.NewBackend(os.Stdout)

// subsystemLoggers maps a short subsystem tag to the logger handed to the
// package it belongs to. setLogLevels applies to every entry in the map.
var subsystemLoggers = map[string]slog.Logger{
	"APP":  backend.Logger("APP"),
	"HTTP": backend.Logger("HTTP"),
	"AUD":  backend.Logger("AUD"),
	"LOOT": backend.Logger("LOOT"),
}

// setLogLevels applies levelStr to every subsystem logger. An invalid
// level falls back to info rather than failing startup over a typo.
func setLogLevels(levelStr string) {
	level, ok := slog.LevelFromString(levelStr)
	if !ok {
		level = slog.LevelInfo
	}
	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}
