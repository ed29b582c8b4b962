package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tef "github.com/OmegaSebastianSandoval/kiosko-tef-bridge"
	tefmock "github.com/OmegaSebastianSandoval/kiosko-tef-bridge/transport/mock"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	mt := tefmock.New(nil)
	c := tef.New(mt, nil)
	require.NoError(t, c.Connect(context.Background(), "mock"))
	t.Cleanup(func() { _ = c.Disconnect() })
	return NewHandler(c, nil, true, 0)
}

func TestPurchase_Approved(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	body, _ := json.Marshal(purchaseRequestDTO{
		TerminalID:    "001",
		TransactionID: "T000000001",
		CashierID:     "OSCROM",
		AmountCents:   5000000,
		IAC:           100,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var dto terminalResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.True(t, dto.Approved)
	assert.Equal(t, "00", dto.ResponseCode)
}

func TestPurchase_InvalidRequestIsBadRequest(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	body, _ := json.Marshal(purchaseRequestDTO{TerminalID: "001"}) // amount_cents == 0
	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchase_MalformedJSON(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatus(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()

	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var dto statusResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.True(t, dto.Connected)
	assert.True(t, dto.MockMode)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
