package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dropin/internal/callresult"
	"github.com/smallbiznis/dropin/internal/config"
	dispatchdomain "github.com/smallbiznis/dropin/internal/dispatch/domain"
	journaldomain "github.com/smallbiznis/dropin/internal/journal/domain"
	"github.com/smallbiznis/dropin/internal/journal/repository"
	paymentsdomain "github.com/smallbiznis/dropin/internal/payments/domain"
	"github.com/smallbiznis/dropin/internal/relay"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testAppID = "com.example.shop"

type stubDispatch struct {
	lastType dispatchdomain.RequestType
	err      error
	nextID   snowflake.ID
}

func (d *stubDispatch) RequestPaymentsCall(ctx context.Context, payload map[string]any) (snowflake.ID, error) {
	return d.RequestCall(ctx, dispatchdomain.RequestTypePayments, payload)
}

func (d *stubDispatch) RequestDetailsCall(ctx context.Context, payload map[string]any) (snowflake.ID, error) {
	return d.RequestCall(ctx, dispatchdomain.RequestTypeDetails, payload)
}

func (d *stubDispatch) RequestCall(_ context.Context, requestType dispatchdomain.RequestType, _ map[string]any) (snowflake.ID, error) {
	if d.err != nil {
		return 0, d.err
	}
	d.lastType = requestType
	return d.nextID, nil
}

func (d *stubDispatch) AsyncCallback(callresult.CallResult) error { return nil }

func setupTestServer(t *testing.T) (*Server, *gin.Engine, *stubDispatch, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	dispatch := &stubDispatch{nextID: 7}
	srv := NewServer(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Cfg:      config.Config{AppID: testAppID, ResultWaitTimeout: 200 * time.Millisecond},
		Dispatch: dispatch,
		Journal:  repository.Provide(),
		Relay:    relay.New(zap.NewNop()),
		Registry: paymentsdomain.NewRegistry(),
	})

	engine := gin.New()
	srv.RegisterAPIRoutes(engine)
	return srv, engine, dispatch, db
}

func doRequest(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSubmitPaymentsAccepted(t *testing.T) {
	_, engine, dispatch, _ := setupTestServer(t)

	w := doRequest(engine, http.MethodPost, "/api/checkout/payments",
		`{"paymentMethod":{"type":"scheme","encryptedCardNumber":"enc"},"amount":{"value":1000,"currency":"EUR"}}`)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if dispatch.lastType != dispatchdomain.RequestTypePayments {
		t.Fatalf("expected payments request, got %q", dispatch.lastType)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["envelope_id"] != "7" {
		t.Fatalf("expected envelope_id 7, got %q", resp["envelope_id"])
	}
}

func TestSubmitPaymentsUnknownVariant(t *testing.T) {
	_, engine, _, _ := setupTestServer(t)

	w := doRequest(engine, http.MethodPost, "/api/checkout/payments",
		`{"paymentMethod":{"type":"sepadirectdebit"}}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSubmitPaymentsMissingMethodStillAccepted(t *testing.T) {
	// Missing payment method is the dispatcher's USER_INPUT_ERROR path; the
	// error result arrives through the relay, not as an HTTP rejection.
	_, engine, dispatch, _ := setupTestServer(t)

	w := doRequest(engine, http.MethodPost, "/api/checkout/payments", `{"paymentMethod":null}`)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if dispatch.lastType != dispatchdomain.RequestTypePayments {
		t.Fatalf("expected payments request, got %q", dispatch.lastType)
	}
}

func TestSubmitDetailsAccepted(t *testing.T) {
	_, engine, dispatch, _ := setupTestServer(t)

	w := doRequest(engine, http.MethodPost, "/api/checkout/details",
		`{"details":{"redirectResult":"X"},"paymentData":"Ab02b4c0"}`)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if dispatch.lastType != dispatchdomain.RequestTypeDetails {
		t.Fatalf("expected details request, got %q", dispatch.lastType)
	}
}

func TestSubmitPaymentsQueueFull(t *testing.T) {
	_, engine, dispatch, _ := setupTestServer(t)
	dispatch.err = dispatchdomain.ErrQueueFull

	w := doRequest(engine, http.MethodPost, "/api/checkout/payments",
		`{"paymentMethod":{"type":"scheme"}}`)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLatestResultEmptyJournal(t *testing.T) {
	_, engine, _, _ := setupTestServer(t)

	w := doRequest(engine, http.MethodGet, "/api/checkout/results/latest", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestResultByEnvelope(t *testing.T) {
	srv, engine, _, db := setupTestServer(t)

	record := &journaldomain.ResultRecord{
		ID:          101,
		AppID:       testAppID,
		EnvelopeID:  55,
		RequestType: string(dispatchdomain.RequestTypePayments),
		ResultType:  string(callresult.TypeFinished),
		Result:      datatypes.JSON(`{"type":"finished","payload":"Authorised"}`),
		DeliveredAt: time.Now().UTC(),
	}
	if err := srv.journal.Insert(context.Background(), db, record); err != nil {
		t.Fatalf("insert: %v", err)
	}

	w := doRequest(engine, http.MethodGet, "/api/checkout/results/envelope/55", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		EnvelopeID string                `json:"envelope_id"`
		Result     callresult.CallResult `json:"payments_api_call_result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.EnvelopeID != "55" || resp.Result.Payload != "Authorised" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestWaitResultTimesOut(t *testing.T) {
	_, engine, _, _ := setupTestServer(t)

	w := doRequest(engine, http.MethodGet, "/api/checkout/results/wait?timeout_ms=50", "")

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
}

func TestWaitResultReceivesDelivery(t *testing.T) {
	srv, engine, _, _ := setupTestServer(t)

	go func() {
		time.Sleep(20 * time.Millisecond)
		srv.relay.Deliver(testAppID, callresult.Finished("Authorised"))
	}()

	w := doRequest(engine, http.MethodGet, "/api/checkout/results/wait?timeout_ms=2000", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]callresult.CallResult
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	result, ok := resp[relay.ResultKey]
	if !ok {
		t.Fatalf("expected %q key, got %s", relay.ResultKey, w.Body.String())
	}
	if result.Type != callresult.TypeFinished || result.Payload != "Authorised" {
		t.Fatalf("unexpected result: %+v", result)
	}
}
