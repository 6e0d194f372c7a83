package seedkit

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lantechdigital/sinilai/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file. If logFile
// is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "seed_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}

	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`Sinilai Seed Tool
=================

Seeds demo data through the Sinilai HTTP API and verifies the judging
flow end to end: event + rubric setup, roster import, concurrent judge
scoring, finalization and recap ordering.

Usage:
  go run cmd/seed/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -admin-key string
        Access key with configuration rights (required)
  -event string
        Name of the seeded event (default "Ujian Kompetensi Keahlian RPL")
  -students int
        Number of students to import (default 40)
  -judges int
        Number of judge keys to create (default 3)
  -workers int
        Number of concurrent scoring workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for run output (default: seed_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Seed with default settings
  go run cmd/seed/main.go -admin-key BOOTSTRAP-ADMIN

  # Seed a bigger roster with more judges
  go run cmd/seed/main.go -admin-key BOOTSTRAP-ADMIN -students 200 -judges 5
`)
}
