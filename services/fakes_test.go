package services_test

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/Endry199/jpstore/models"
	"github.com/Endry199/jpstore/sender"
	"github.com/Endry199/jpstore/services"
)

type fakeTxRepo struct {
	mu          sync.Mutex
	created     []*models.Transaction
	patches     map[uuid.UUID]int64
	completed   []string
	createErr   error
	patchErr    error
	completeErr error
	findErr     error
	pending     bool
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{patches: map[uuid.UUID]int64{}, pending: true}
}

func (r *fakeTxRepo) Create(ctx context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	tx.ID = uuid.New()
	r.created = append(r.created, tx)
	return nil
}

func (r *fakeTxRepo) SetTelegramMessageID(ctx context.Context, id uuid.UUID, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.patchErr != nil {
		return r.patchErr
	}
	r.patches[id] = messageID
	return nil
}

func (r *fakeTxRepo) MarkCompleted(ctx context.Context, transactionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completeErr != nil {
		return false, r.completeErr
	}
	r.completed = append(r.completed, transactionID)
	return r.pending, nil
}

func (r *fakeTxRepo) FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return &models.Transaction{TransactionID: transactionID, Status: models.StatusCompleted}, nil
}

type sentDocument struct {
	chatID   string
	filename string
	caption  string
	body     string
}

type fakeMessenger struct {
	mu        sync.Mutex
	texts     []string
	markups   []*sender.InlineKeyboardMarkup
	documents []sentDocument
	answers   []string
	messageID int64
	sendErr   error
	docErr    error
}

func (m *fakeMessenger) SendMessage(ctx context.Context, chatID, text string, markup *sender.InlineKeyboardMarkup) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	m.markups = append(m.markups, markup)
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	return m.messageID, nil
}

func (m *fakeMessenger) SendDocument(ctx context.Context, chatID string, doc io.Reader, filename, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(doc)
	m.documents = append(m.documents, sentDocument{chatID: chatID, filename: filename, caption: caption, body: string(data)})
	return m.docErr
}

func (m *fakeMessenger) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, text)
	return nil
}

type sentEmail struct {
	from, to, subject, body string
}

type fakeMailer struct {
	sent []sentEmail
	err  error
}

func (f *fakeMailer) SendEmail(ctx context.Context, from, to, subject, htmlBody string) (sender.SendResult, error) {
	f.sent = append(f.sent, sentEmail{from, to, subject, htmlBody})
	if f.err != nil {
		return sender.SendResult{}, f.err
	}
	return sender.SendResult{MessageID: "<1@test>"}, nil
}

type fakeNotifier struct {
	calls []*services.Order
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, order *services.Order) error {
	f.calls = append(f.calls, order)
	return f.err
}

type fakeArchiver struct {
	keys []string
	body string
	err  error
}

func (f *fakeArchiver) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	f.keys = append(f.keys, key)
	data, _ := io.ReadAll(body)
	f.body = string(data)
	if f.err != nil {
		return "", f.err
	}
	return "s3://receipts/" + key, nil
}

func strPtr(s string) *string { return &s }
