package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const parseModeMarkdown = "Markdown"

// TelegramSender talks to the Bot API over plain HTTPS.
type TelegramSender struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewTelegramSender(apiURL, token string, timeout time.Duration) (*TelegramSender, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TelegramSender{
		baseURL:    strings.TrimSuffix(apiURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (t *TelegramSender) SendMessage(ctx context.Context, chatID, text string, markup *InlineKeyboardMarkup) (int64, error) {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": parseModeMarkdown,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode message: %w", err)
	}

	result, err := t.call(ctx, "sendMessage", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	var msg TelegramMessage
	if err := json.Unmarshal(result, &msg); err != nil {
		return 0, fmt.Errorf("telegram sendMessage: bad result: %w", err)
	}
	return msg.MessageID, nil
}

// SendDocument uploads doc as a multipart form. The body is streamed so the
// receipt is never held in memory whole.
func (t *TelegramSender) SendDocument(ctx context.Context, chatID string, doc io.Reader, filename, caption string) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeDocumentForm(mw, chatID, doc, filename, caption)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	_, err := t.call(ctx, "sendDocument", mw.FormDataContentType(), pr)
	// unblock the writer if the request ended before consuming the body
	pr.Close()
	return err
}

func writeDocumentForm(mw *multipart.Writer, chatID string, doc io.Reader, filename, caption string) error {
	fields := [][2]string{
		{"chat_id", chatID},
		{"caption", caption},
		{"parse_mode", parseModeMarkdown},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("document", filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, doc)
	return err
}

func (t *TelegramSender) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	body, err := json.Marshal(map[string]string{
		"callback_query_id": callbackID,
		"text":              text,
	})
	if err != nil {
		return err
	}
	_, err = t.call(ctx, "answerCallbackQuery", "application/json", bytes.NewReader(body))
	return err
}

func (t *TelegramSender) call(ctx context.Context, method, contentType string, body io.Reader) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// the URL carries the token
		return nil, fmt.Errorf("telegram %s request failed: %w", method, redact(err, t.token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("telegram %s: read response: %w", method, err)
	}

	var out apiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("telegram %s error %s: %s", method, resp.Status, string(raw))
	}
	if !out.OK || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("telegram %s error %s: %s", method, resp.Status, out.Description)
	}
	return out.Result, nil
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), err: err}
}
