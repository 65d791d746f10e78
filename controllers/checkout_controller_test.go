package controllers_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Endry199/jpstore/controllers"
	"github.com/Endry199/jpstore/services"
)

type checkoutHarness struct {
	repo      *fakeTxRepo
	messenger *fakeMessenger
	mailer    *fakeMailer
	ready     readiness
	router    *gin.Engine
}

func newCheckoutHarness(t *testing.T) *checkoutHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return &checkoutHarness{
		repo:      &fakeTxRepo{},
		messenger: &fakeMessenger{},
		mailer:    &fakeMailer{},
	}
}

// build wires the real checkout stack around the fakes.
func (h *checkoutHarness) build(t *testing.T, maxBody int64) *gin.Engine {
	t.Helper()
	logger := zap.NewNop()
	customer, err := services.NewCustomerNotifier(h.mailer, services.CustomerNotifierConfig{
		From:          "store@example.com",
		StoreWhatsapp: "584143187185",
	}, logger)
	require.NoError(t, err)

	svc := services.NewCheckoutService(services.CheckoutDeps{
		Repo:           h.repo,
		Operator:       services.NewOperatorNotifier(h.messenger, h.repo, "-100", logger),
		Customer:       customer,
		Logger:         logger,
		TelegramChatID: "-100",
	})
	ctrl := controllers.NewCheckoutController(svc, h.ready, maxBody, logger)

	r := gin.New()
	r.Any("/checkout", ctrl.Checkout)
	h.router = r
	return r
}

func (h *checkoutHarness) do(req *http.Request) (*httptest.ResponseRecorder, map[string]string) {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

const validCheckout = `{
	"finalPrice": "100.00",
	"currency": "VES",
	"paymentMethod": "pago-movil",
	"email": "buyer@example.com",
	"whatsappNumber": "0414-123-4567",
	"phone": "04141234567",
	"reference": "998877",
	"cartDetails": "[{\"game\":\"Free Fire\",\"packageName\":\"100 diamantes\",\"playerId\":\"55512\",\"priceUSD\":\"5.00\",\"priceVES\":\"100.00\"}]"
}`

func TestCheckout_Success(t *testing.T) {
	h := newCheckoutHarness(t)
	h.build(t, 0)

	w, body := h.do(jsonRequest(validCheckout))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `^JPSTORE-\d+$`, body["transactionId"])
	assert.NotEmpty(t, body["message"])
	assert.Len(t, h.repo.created, 1)
	assert.LessOrEqual(t, h.repo.patches, 1)
	assert.Equal(t, body["transactionId"], h.repo.created[0].TransactionID)
}

func TestCheckout_GlobalCurrencyPriceInBothChannels(t *testing.T) {
	h := newCheckoutHarness(t)
	h.build(t, 0)

	w, _ := h.do(jsonRequest(validCheckout))
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, h.messenger.texts, 1)
	assert.Contains(t, h.messenger.texts[0], "100.00 VES")
	assert.NotContains(t, h.messenger.texts[0], "5.00")

	require.Len(t, h.mailer.bodies, 1)
	assert.Contains(t, h.mailer.bodies[0], "100.00 VES")
	assert.NotContains(t, h.mailer.bodies[0], "5.00")
}

func TestCheckout_MessengerFailureStillSucceeds(t *testing.T) {
	h := newCheckoutHarness(t)
	h.messenger.sendErr = errors.New("telegram unreachable")
	h.build(t, 0)

	w, body := h.do(jsonRequest(validCheckout))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["transactionId"])
	assert.Len(t, h.mailer.bodies, 1)
	assert.Zero(t, h.repo.patches)
}

func TestCheckout_EmptyCart(t *testing.T) {
	h := newCheckoutHarness(t)
	h.build(t, 0)

	w, body := h.do(jsonRequest(`{"finalPrice":"5.00","currency":"USD","paymentMethod":"binance","email":"a@b.com","cartDetails":"[]"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "The shopping cart is empty.", body["message"])
	assert.Empty(t, h.repo.created)
}

func TestCheckout_MissingEmail(t *testing.T) {
	h := newCheckoutHarness(t)
	h.build(t, 0)

	w, body := h.do(jsonRequest(`{"finalPrice":"5.00","currency":"USD","paymentMethod":"binance","cartDetails":"[{\"game\":\"x\"}]"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing field 'email'.", body["message"])
	assert.Empty(t, h.repo.created)
	assert.Empty(t, h.messenger.texts)
	assert.Empty(t, h.mailer.bodies)
}

func TestCheckout_ExponentFinalPriceRejected(t *testing.T) {
	h := newCheckoutHarness(t)
	h.build(t, 0)

	for _, price := range []string{`"1e50000000"`, `1e50000000`, `"1234567890123"`} {
		w, body := h.do(jsonRequest(`{"finalPrice":` + price + `,"currency":"USD","paymentMethod":"binance","email":"a@b.com","cartDetails":"[{\"game\":\"x\"}]"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code, price)
		assert.Equal(t, "Invalid value for field 'finalPrice'.", body["message"], price)
	}
	assert.Empty(t, h.repo.created)
	assert.Empty(t, h.messenger.texts)
}

func TestCheckout_ExponentCartPriceIsAbsent(t *testing.T) {
	h := newCheckoutHarness(t)
	h.build(t, 0)

	w, _ := h.do(jsonRequest(`{"finalPrice":" 5.00 ","currency":"USD","paymentMethod":"binance","email":"a@b.com",` +
		`"cartDetails":[{"game":"Free Fire","packageName":"100","priceUSD":"1e50000000"},{"game":"Free Fire","packageName":"200","priceUSD":1e50000000}]}`))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, h.repo.created, 1)
	assert.Equal(t, "5", h.repo.created[0].FinalPrice.String())

	require.Len(t, h.messenger.texts, 1)
	assert.NotContains(t, h.messenger.texts[0], "Price (Est.)")
	assert.Contains(t, h.messenger.texts[0], "*TOTAL TO PAY:* 5.00 USD")
	require.Len(t, h.mailer.bodies, 1)
	assert.Less(t, len(h.mailer.bodies[0]), 1<<20)
}

func TestCheckout_WrongMethodDoesNotReadBody(t *testing.T) {
	h := newCheckoutHarness(t)
	h.build(t, 0)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		body := &explodingBody{}
		req := httptest.NewRequest(method, "/checkout", nil)
		req.Body = body

		w, resp := h.do(req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.Equal(t, "Method Not Allowed", resp["message"])
		assert.False(t, body.read, method)
	}
}

func TestCheckout_NotConfigured(t *testing.T) {
	h := newCheckoutHarness(t)
	h.ready = readiness{err: errors.New("TelegramBotToken failed \"required\"")}
	h.build(t, 0)

	body := &explodingBody{}
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req.Body = body
	w, resp := h.do(req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, resp["message"], "Server configuration error")
	assert.False(t, body.read)
}

func TestCheckout_PersistenceFailure(t *testing.T) {
	h := newCheckoutHarness(t)
	h.repo.createErr = errors.New("connection refused")
	h.build(t, 0)

	w, body := h.do(jsonRequest(validCheckout))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error saving the transaction to the database.", body["message"])
	assert.Empty(t, h.messenger.texts)
	assert.Empty(t, h.mailer.bodies)
}

func multipartCheckout(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	var fields map[string]string
	require.NoError(t, json.Unmarshal([]byte(validCheckout), &fields))
	return multipartBody(t, fields, []byte("receipt-bytes"))
}

func TestCheckout_MultipartReceiptIsSentAndCleanedUp(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)
	h := newCheckoutHarness(t)
	h.build(t, 0)

	body, ct := multipartCheckout(t)
	req := httptest.NewRequest(http.MethodPost, "/checkout", body)
	req.Header.Set("Content-Type", ct)

	w, _ := h.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"receipt-bytes"}, h.messenger.documents)
	assert.Equal(t, 1, h.repo.patches)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCheckout_ReceiptCleanedUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)
	h := newCheckoutHarness(t)
	h.repo.createErr = errors.New("connection refused")
	h.build(t, 0)

	body, ct := multipartCheckout(t)
	req := httptest.NewRequest(http.MethodPost, "/checkout", body)
	req.Header.Set("Content-Type", ct)

	w, _ := h.do(req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCheckout_Base64Body(t *testing.T) {
	h := newCheckoutHarness(t)
	h.build(t, 0)

	req := jsonRequest(base64.StdEncoding.EncodeToString([]byte(validCheckout)))
	req.Header.Set("X-Body-Encoding", "base64")

	w, _ := h.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, h.repo.created, 1)
}

func TestCheckout_BodyTooLarge(t *testing.T) {
	h := newCheckoutHarness(t)
	h.build(t, 64)

	w, body := h.do(jsonRequest(validCheckout))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["message"], "request body too large")
	assert.Empty(t, h.repo.created)
}

func TestCheckout_MalformedJSON(t *testing.T) {
	h := newCheckoutHarness(t)
	h.build(t, 0)

	w, body := h.do(jsonRequest(`{"finalPrice":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["message"], "Error processing the request data")
}
