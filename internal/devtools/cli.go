package devtools

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mooot/league/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging sends logs to stdout and to logFile. An empty logFile gets a
// timestamped name. The returned function closes the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	if logFile == "" {
		logFile = "league_seed_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	if verbose {
		if err := logger.SetLevelString("debug"); err != nil {
			_ = file.Close()
			return nil, err
		}
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the seeding tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `League seeding tool

Posts generated plays for a chat to a running league server and checks the
served all-time ranking against one computed locally.

Usage:
  league-cli [options]

Options:
  -url string         Base URL of the server (default "http://localhost:9080")
  -chat int           Chat id to seed (default -1)
  -players int        Number of human players (default 10)
  -days int           Number of consecutive days (default 7)
  -max-per-day int    Upper bound of plays per player and day (default 3)
  -workers int        Concurrent submitters (default 8)
  -timeout duration   HTTP request timeout (default 5s)
  -wait duration      How long to wait for the ranking to settle (default 10s)
  -seed int           Generator seed (default 1)
  -output string      Write the generated plays to this JSON file
  -log string         Log file (default league_seed_<timestamp>.log)
  -verbose            Debug logging
  -help               Show this help

Examples:
  league-cli -chat -100 -players 50 -days 30
  league-cli -url http://league:9080 -seed 7 -output plays.json
`)
}
