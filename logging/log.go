// Package logging provides the leveled logger used across the BIOME substrate.
package logging

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
)

// Level identifies a logger severity threshold.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var (
	// CurrentLevel is the active threshold; messages below it are dropped.
	CurrentLevel Level = LevelInfo

	debugLogger = log.New(os.Stdout, "DEBUG: ", log.Ltime|log.Lshortfile)
	infoLogger  = log.New(os.Stdout, "INFO: ", log.Ltime|log.Lshortfile)
	warnLogger  = log.New(os.Stdout, "WARN: ", log.Ltime|log.Lshortfile)
	errorLogger = log.New(os.Stderr, "ERROR: ", log.Ltime|log.Lshortfile)

	// Debug logs a message at debug level.
	Debug = func(message string) {
		if accepts(CurrentLevel, LevelDebug) {
			_ = debugLogger.Output(2, message)
		}
	}
	// Info logs a message at info level.
	Info = func(message string) {
		if accepts(CurrentLevel, LevelInfo) {
			_ = infoLogger.Output(2, message)
		}
	}
	// Warn logs a message at warn level.
	Warn = func(message string) {
		if accepts(CurrentLevel, LevelWarn) {
			_ = warnLogger.Output(2, message)
		}
	}
	// Error logs a message at error level.
	Error = func(message string) {
		if accepts(CurrentLevel, LevelError) {
			_ = errorLogger.Output(2, message)
		}
	}
)

// Init sets the active log level from its string name.
func Init(level string) error {
	switch level {
	case "debug":
		CurrentLevel = LevelDebug
	case "info":
		CurrentLevel = LevelInfo
	case "warn":
		CurrentLevel = LevelWarn
	case "error":
		CurrentLevel = LevelError
	case "":
		CurrentLevel = LevelInfo
	default:
		return errors.Errorf("unsupported log level: %q", level)
	}
	return nil
}

func accepts(current, target Level) bool {
	switch current {
	case LevelDebug:
		return true
	case LevelInfo:
		return target == LevelInfo || target == LevelWarn || target == LevelError
	case LevelWarn:
		return target == LevelWarn || target == LevelError
	case LevelError:
		return target == LevelError
	default:
		_ = errorLogger.Output(2, fmt.Sprintf(
			"unsupported log level %q set, use one of: debug, info, warn, error", current))
		return false
	}
}
