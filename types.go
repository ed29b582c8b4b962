package tef

import (
	"time"

	"github.com/OmegaSebastianSandoval/kiosko-tef-bridge/internal/frame"
)

// PurchaseRequest is an operator-initiated sale.
type PurchaseRequest struct {
	TerminalID    string
	TransactionID string
	CashierID     string
	AmountCents   uint64
	TaxCents      uint64
	TipCents      uint64
	IAC           uint64
	SendPAN       bool
}

// Validate rejects a PurchaseRequest before it reaches the codec: a zero
// amount or an empty transaction ID fails fast with ErrInvalidRequest.
func (r PurchaseRequest) Validate() error {
	if r.AmountCents == 0 {
		return ErrInvalidRequest
	}
	if r.TransactionID == "" {
		return ErrInvalidRequest
	}
	if len(r.TerminalID) > 10 || len(r.TransactionID) > 10 || len(r.CashierID) > 12 {
		return ErrInvalidRequest
	}
	return nil
}

func (r PurchaseRequest) toFields() frame.PurchaseFields {
	return frame.PurchaseFields{
		TotalCents:    r.AmountCents,
		TaxCents:      r.TaxCents,
		TerminalID:    r.TerminalID,
		TransactionID: r.TransactionID,
		TipCents:      r.TipCents,
		IAC:           r.IAC,
		CashierID:     r.CashierID,
	}
}

// ReversalRequest voids a prior transaction.
type ReversalRequest struct {
	ReceiptNumber string
	TerminalID    string
	TransactionID string
	CashierID     string
}

// Validate rejects a ReversalRequest whose receipt number is not exactly
// 6 characters or whose transaction ID is empty before it reaches the
// codec. Terminal and cashier IDs are not checked.
func (r ReversalRequest) Validate() error {
	if len(r.ReceiptNumber) != 6 {
		return ErrInvalidRequest
	}
	if r.TransactionID == "" {
		return ErrInvalidRequest
	}
	return nil
}

func (r ReversalRequest) toFields() frame.ReversalFields {
	return frame.ReversalFields{
		ReceiptNumber: r.ReceiptNumber,
		TerminalID:    r.TerminalID,
		TransactionID: r.TransactionID,
		CashierID:     r.CashierID,
	}
}

// Field numbers from the datáfono's response TLV dictionary that
// TerminalResponse surfaces as named attributes.
const (
	fieldAuthCode        = "39"
	fieldAmount          = "40"
	fieldFranchise       = "49"
	fieldAccountType     = "51"
	fieldLast4           = "76"
	fieldMaskedPAN       = "77"
	fieldReceiptNumber   = "78"
	fieldTransactionDate = "85"
	fieldTransactionTime = "86"
	fieldResponseCode    = "48"
)

// TerminalResponse is the decoded outcome of a purchase or reversal
// exchange. Approved is the strict gate: field 48 present and trimmed to
// "00".
type TerminalResponse struct {
	Fields          map[string]frame.Field
	ResponseCode    string
	Message         string
	AuthCode        string
	Amount          string
	Franchise       string
	AccountType     string
	Last4           string
	MaskedPAN       string
	ReceiptNumber   string
	TransactionDate string
	TransactionTime string
	Approved        bool
}

// fromDecoded builds a TerminalResponse from a decoded frame, applying
// the approval gate and the response-code dictionary lookup.
func fromDecoded(d frame.Decoded) TerminalResponse {
	r := TerminalResponse{
		Fields:       d.Fields,
		Approved:     d.Approved(),
		ResponseCode: d.ResponseCode(),
	}
	if r.Approved {
		r.Message = "Aprobada"
	} else {
		r.Message = frame.DescribeResponseCode(r.ResponseCode)
	}
	r.AuthCode, _ = d.Get(fieldAuthCode)
	r.Amount, _ = d.Get(fieldAmount)
	r.Franchise, _ = d.Get(fieldFranchise)
	r.AccountType, _ = d.Get(fieldAccountType)
	r.Last4, _ = d.Get(fieldLast4)
	r.MaskedPAN, _ = d.Get(fieldMaskedPAN)
	r.ReceiptNumber, _ = d.Get(fieldReceiptNumber)
	r.TransactionDate, _ = d.Get(fieldTransactionDate)
	r.TransactionTime, _ = d.Get(fieldTransactionTime)
	return r
}

// ConnectionStatus reports the coordinator's current connection state.
type ConnectionStatus struct {
	Port      string
	Connected bool
	Baud      int
}

// DefaultTimeout is the per-transaction timeout used when a caller doesn't
// supply one.
const DefaultTimeout = 60 * time.Second
