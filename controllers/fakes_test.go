package controllers_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/Endry199/jpstore/models"
	"github.com/Endry199/jpstore/sender"
)

type readiness struct{ err error }

func (r readiness) CheckoutReady() error { return r.err }

type fakeTxRepo struct {
	mu        sync.Mutex
	created   []*models.Transaction
	patches   int
	completed []string
	createErr error
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
	r.patches++
	return nil
}

func (r *fakeTxRepo) MarkCompleted(ctx context.Context, transactionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, transactionID)
	return true, nil
}

func (r *fakeTxRepo) FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return nil, errors.New("not implemented")
}

type fakeMessenger struct {
	mu        sync.Mutex
	texts     []string
	documents []string
	answers   []string
	sendErr   error
}

func (m *fakeMessenger) SendMessage(ctx context.Context, chatID, text string, markup *sender.InlineKeyboardMarkup) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	return 77, nil
}

func (m *fakeMessenger) SendDocument(ctx context.Context, chatID string, doc io.Reader, filename, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := io.ReadAll(doc)
	if err != nil {
		return err
	}
	m.documents = append(m.documents, string(data))
	return nil
}

func (m *fakeMessenger) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, text)
	return nil
}

type fakeMailer struct {
	mu     sync.Mutex
	bodies []string
}

func (f *fakeMailer) SendEmail(ctx context.Context, from, to, subject, htmlBody string) (sender.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies = append(f.bodies, htmlBody)
	return sender.SendResult{MessageID: "<1@test>"}, nil
}

type fakeProductService struct {
	product *models.Product
	err     error
	slugs   []string
}

func (f *fakeProductService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	f.slugs = append(f.slugs, slug)
	return f.product, f.err
}

// explodingBody fails the test if the handler reads the request body.
type explodingBody struct{ read bool }

func (b *explodingBody) Read(p []byte) (int, error) {
	b.read = true
	return 0, errors.New("body must not be read")
}

func (b *explodingBody) Close() error { return nil }
