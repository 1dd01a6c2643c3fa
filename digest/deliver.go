package digest

import (
	"context"
	"errors"
	"strings"

	"github.com/amonks/tracker/telegram"
)

var (
	// ErrNoSender is reported when no chat client is configured.
	ErrNoSender = errors.New("no message sender configured")

	// ErrNoChat is reported when no destination chat is configured.
	ErrNoChat = errors.New("no destination chat configured")
)

// Sender sends chat messages.
type Sender interface {
	SendMessage(ctx context.Context, msg telegram.OutgoingMessage) error
}

// Delivery is the outcome of sending a report.
type Delivery struct {
	ChatID string
	Sent   bool
	Err    error
}

// Deliver sends text to chatID once. Failures are returned in the
// Delivery rather than as an error; nothing is retried.
func Deliver(ctx context.Context, sender Sender, chatID, text string) Delivery {
	delivery := Delivery{ChatID: chatID}
	switch {
	case sender == nil:
		delivery.Err = ErrNoSender
	case strings.TrimSpace(chatID) == "":
		delivery.Err = ErrNoChat
	default:
		delivery.Err = sender.SendMessage(ctx, telegram.OutgoingMessage{ChatID: chatID, Text: text})
		delivery.Sent = delivery.Err == nil
	}
	return delivery
}
