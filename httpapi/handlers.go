// Package httpapi is the thin HTTP front end over tef.Coordinator,
// grounded on punchamoorthee-ledgerops/internal/api/handlers.go's
// gorilla/mux routing, Prometheus counters/histograms, and JSON envelope
// helpers, and on go-pn532/cmd/nfctest/main.go's flag/signal-based
// process wiring (used by cmd/tefbridged). This layer carries no business
// concerns of its own — JSON decoding and shaping are all this package
// does; field validation and every operation are delegated to Coordinator.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	tef "github.com/OmegaSebastianSandoval/kiosko-tef-bridge"
	"github.com/OmegaSebastianSandoval/kiosko-tef-bridge/transport/serial"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tef_http_requests_total",
		Help: "Total HTTP requests processed, labeled by route and status code",
	}, []string{"route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tef_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"route"})
)

// Handler wires HTTP routes onto a tef.Coordinator.
type Handler struct {
	coordinator    *tef.Coordinator
	log            *logrus.Entry
	mockMode       bool
	defaultTimeout time.Duration
}

// NewHandler builds a Handler over an already-constructed Coordinator.
// mockMode is surfaced verbatim through /api/v1/status. defaultTimeout is
// used whenever a request omits timeout_ms; a zero value falls back to
// tef.DefaultTimeout.
func NewHandler(c *tef.Coordinator, log *logrus.Logger, mockMode bool, defaultTimeout time.Duration) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if defaultTimeout <= 0 {
		defaultTimeout = tef.DefaultTimeout
	}
	return &Handler{
		coordinator:    c,
		log:            log.WithField("component", "httpapi"),
		mockMode:       mockMode,
		defaultTimeout: defaultTimeout,
	}
}

// Router builds the mux.Router exposing the health, purchase, reversal,
// status, ports, and connect endpoints.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/purchase", h.Purchase).Methods(http.MethodPost)
	v1.HandleFunc("/reversal", h.Reversal).Methods(http.MethodPost)
	v1.HandleFunc("/status", h.Status).Methods(http.MethodGet)
	v1.HandleFunc("/ports", h.Ports).Methods(http.MethodGet)
	v1.HandleFunc("/connect", h.Connect).Methods(http.MethodPost)
	return r
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	const route = "/api/v1/purchase"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(route))
	defer timer.ObserveDuration()

	var dto purchaseRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.fail(w, route, http.StatusBadRequest, "malformed JSON body")
		return
	}

	req := tef.PurchaseRequest{
		TerminalID:    dto.TerminalID,
		TransactionID: dto.TransactionID,
		CashierID:     dto.CashierID,
		AmountCents:   dto.AmountCents,
		TaxCents:      dto.TaxCents,
		TipCents:      dto.TipCents,
		IAC:           dto.IAC,
		SendPAN:       dto.SendPAN,
	}

	resp, err := h.coordinator.SendPurchase(r.Context(), req, h.timeoutOf(dto.TimeoutMS))
	h.respondTransaction(w, route, resp, err)
}

func (h *Handler) Reversal(w http.ResponseWriter, r *http.Request) {
	const route = "/api/v1/reversal"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(route))
	defer timer.ObserveDuration()

	var dto reversalRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.fail(w, route, http.StatusBadRequest, "malformed JSON body")
		return
	}

	req := tef.ReversalRequest{
		ReceiptNumber: dto.ReceiptNumber,
		TerminalID:    dto.TerminalID,
		TransactionID: dto.TransactionID,
		CashierID:     dto.CashierID,
	}

	resp, err := h.coordinator.SendReversal(r.Context(), req, h.timeoutOf(dto.TimeoutMS))
	h.respondTransaction(w, route, resp, err)
}

// respondTransaction maps a Coordinator result onto an HTTP response: a
// decline is a 200 with approved:false, since it's a successful exchange
// with a negative outcome; InvalidRequest/Busy/NotConnected map to
// 400/409/503; Timeout/TransportError/Closed map to 504/502/409
// respectively.
func (h *Handler) respondTransaction(w http.ResponseWriter, route string, resp tef.TerminalResponse, err error) {
	if err == nil {
		httpRequestsTotal.WithLabelValues(route, "200").Inc()
		respondJSON(w, http.StatusOK, terminalResponseDTO{
			Approved:        resp.Approved,
			ResponseCode:    resp.ResponseCode,
			Message:         resp.Message,
			AuthCode:        resp.AuthCode,
			Amount:          resp.Amount,
			Franchise:       resp.Franchise,
			AccountType:     resp.AccountType,
			Last4:           resp.Last4,
			MaskedPAN:       resp.MaskedPAN,
			ReceiptNumber:   resp.ReceiptNumber,
			TransactionDate: resp.TransactionDate,
			TransactionTime: resp.TransactionTime,
			Fields:          fieldsToJSON(resp.Fields),
		})
		return
	}

	switch {
	case errors.Is(err, tef.ErrInvalidRequest):
		h.fail(w, route, http.StatusBadRequest, err.Error())
	case errors.Is(err, tef.ErrNotConnected):
		h.fail(w, route, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, tef.ErrBusy):
		h.fail(w, route, http.StatusConflict, err.Error())
	case errors.Is(err, tef.ErrTimeout):
		h.fail(w, route, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, tef.ErrClosed):
		h.fail(w, route, http.StatusConflict, err.Error())
	default:
		h.log.WithError(err).Warn("transaction failed")
		h.fail(w, route, http.StatusBadGateway, err.Error())
	}
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	const route = "/api/v1/status"
	st := h.coordinator.Status()
	httpRequestsTotal.WithLabelValues(route, "200").Inc()
	respondJSON(w, http.StatusOK, statusResponseDTO{
		Connected: st.Connected,
		Port:      st.Port,
		Baud:      st.Baud,
		MockMode:  h.mockMode,
	})
}

func (h *Handler) Ports(w http.ResponseWriter, r *http.Request) {
	const route = "/api/v1/ports"
	ports, err := serial.ListPorts()
	if err != nil {
		h.fail(w, route, http.StatusInternalServerError, err.Error())
		return
	}
	httpRequestsTotal.WithLabelValues(route, "200").Inc()
	respondJSON(w, http.StatusOK, map[string][]string{"ports": ports})
}

func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	const route = "/api/v1/connect"
	var dto connectRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.fail(w, route, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if err := h.coordinator.Connect(r.Context(), dto.Port); err != nil {
		h.fail(w, route, http.StatusInternalServerError, err.Error())
		return
	}
	httpRequestsTotal.WithLabelValues(route, "200").Inc()
	respondJSON(w, http.StatusOK, h.coordinator.Status())
}

func (h *Handler) fail(w http.ResponseWriter, route string, code int, message string) {
	httpRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	respondJSON(w, code, errorResponseDTO{Error: message})
}

func (h *Handler) timeoutOf(ms int) time.Duration {
	if ms <= 0 {
		return h.defaultTimeout
	}
	return time.Duration(ms) * time.Millisecond
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
