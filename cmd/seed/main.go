package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/lantechdigital/sinilai/internal/seedkit"
)

// Default configuration constants.
const (
	defaultStudents   = 40
	defaultJudges     = 3
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		adminKey  = flag.String("admin-key", "", "Access key with configuration rights")
		eventName = flag.String("event", "Ujian Kompetensi Keahlian RPL", "Name of the seeded event")
		students  = flag.Int("students", defaultStudents, "Number of students to import")
		judges    = flag.Int("judges", defaultJudges, "Number of judge keys to create")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent scoring workers")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile   = flag.String("log", "", "Log file for run output (default: seed_log_TIMESTAMP.log)")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seedkit.ShowHelp()
		return
	}

	if *adminKey == "" {
		os.Stderr.WriteString("missing required -admin-key flag\n")
		os.Exit(1)
	}

	if err := seedkit.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &seedkit.Config{
		BaseURL:   *baseURL,
		AdminKey:  *adminKey,
		EventName: *eventName,
		Students:  *students,
		Judges:    *judges,
		Workers:   *workers,
		Timeout:   *timeout,
		LogFile:   *logFile,
		Verbose:   *verbose,
	}

	if err := seedkit.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seed run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
