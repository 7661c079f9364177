// Command league-cli seeds a running league server with generated plays and
// verifies the ranking it serves.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mooot/league/internal/devtools"
)

const (
	defaultChatID    = -1
	defaultPlayers   = 10
	defaultDays      = 7
	defaultMaxPerDay = 3
	defaultWorkers   = 8
	defaultTimeout   = 5 * time.Second
	defaultWait      = 10 * time.Second
	runTimeout       = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the server")
		chatID     = flag.Int64("chat", defaultChatID, "Chat id to seed")
		players    = flag.Int("players", defaultPlayers, "Number of human players")
		days       = flag.Int("days", defaultDays, "Number of consecutive days")
		maxPerDay  = flag.Int("max-per-day", defaultMaxPerDay, "Upper bound of plays per player and day")
		workers    = flag.Int("workers", defaultWorkers, "Concurrent submitters")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		wait       = flag.Duration("wait", defaultWait, "How long to wait for the ranking to settle")
		seed       = flag.Int64("seed", 1, "Generator seed")
		outputFile = flag.String("output", "", "Write the generated plays to this JSON file")
		logFile    = flag.String("log", "", "Log file (default: league_seed_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		devtools.ShowHelp(os.Stdout)
		return
	}

	closeLog, err := devtools.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to set up logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, runTimeout)

	_, err = devtools.Run(ctx, &devtools.Config{
		BaseURL:    *baseURL,
		ChatID:     *chatID,
		Players:    *players,
		Days:       *days,
		MaxPerDay:  *maxPerDay,
		Workers:    *workers,
		Timeout:    *timeout,
		Wait:       *wait,
		Seed:       *seed,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	})
	cancel()
	stop()
	_ = closeLog()
	if err != nil {
		_, _ = os.Stderr.WriteString("seeding failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
