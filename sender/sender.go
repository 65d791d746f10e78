package sender

import (
	"context"
	"io"
	"time"
)

type SendResult struct {
	MessageID string
	SentAt    time.Time
}

type EmailSender interface {
	SendEmail(ctx context.Context, from, to, subject, htmlBody string) (SendResult, error)
}

// OperatorMessenger is the bot surface used to alert operators and receive
// their acknowledgements.
type OperatorMessenger interface {
	SendMessage(ctx context.Context, chatID, text string, markup *InlineKeyboardMarkup) (int64, error)
	SendDocument(ctx context.Context, chatID string, doc io.Reader, filename, caption string) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}
