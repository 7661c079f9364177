// Package notify renders league events as chat messages and delivers them.
package notify

import (
	"context"
	"errors"

	"github.com/mooot/league/pkg/logger"
)

// ParseModeHTML is the only parse mode the formatter produces.
const ParseModeHTML = "HTML"

// Sentinel kinds for delivery errors.
var (
	ErrDeliveryFailed = errors.New("notification delivery failed")
	ErrNoToken        = errors.New("telegram token is required")
)

// Message is a formatted chat message.
type Message struct {
	Text      string
	ParseMode string
}

// Sender delivers a message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger logger.Logger
}

// NewLogSender creates a dry-run sender.
func NewLogSender() *LogSender {
	return &LogSender{logger: logger.Get().Named("notify")}
}

func (s *LogSender) Send(ctx context.Context, chatID int64, msg Message) error {
	s.logger.Info(ctx, "notification",
		logger.Int64("chat_id", chatID),
		logger.String("parse_mode", msg.ParseMode),
		logger.String("text", msg.Text),
	)
	return nil
}
