package devtools

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL    string        // Base URL of the service
	ChatID     int64         // Chat the plays are posted to
	Players    int           // Number of human players
	Days       int           // Number of consecutive days played
	MaxPerDay  int           // Upper bound of plays per player and day
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Wait       time.Duration // How long to wait for the ranking to settle
	Seed       int64         // Seed of the play generator
	OutputFile string        // Output file for generated plays
	Verbose    bool          // Enable verbose logging
}

// PlayRequest mirrors the body of POST /chats/{chatID}/plays.
type PlayRequest struct {
	PlayerKind     string `json:"player_kind"`
	PlayerID       int64  `json:"player_id"`
	PlayerName     string `json:"player_name"`
	Points         *int   `json:"points,omitempty"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	RecordedAt     string `json:"recorded_at,omitempty"`
	Share          string `json:"share,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	PlaysGenerated int
	PlaysSubmitted int
	PlaysAccepted  int
	PlaysRejected  int
	PlaysFailed    int
	RankingEntries int
	VerifyAttempts int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
