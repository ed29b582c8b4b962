package httpapi

import "github.com/OmegaSebastianSandoval/kiosko-tef-bridge/internal/frame"

// purchaseRequestDTO is the JSON shape the POS web application posts to
// /api/v1/purchase. JSON decoding and field-shaping live in this package;
// the tef.PurchaseRequest built from it is validated by Coordinator
// (PurchaseRequest.Validate), whose ErrInvalidRequest maps to HTTP 400.
type purchaseRequestDTO struct {
	TerminalID    string `json:"terminal_id"`
	TransactionID string `json:"transaction_id"`
	CashierID     string `json:"cashier_id"`
	AmountCents   uint64 `json:"amount_cents"`
	TaxCents      uint64 `json:"tax_cents"`
	TipCents      uint64 `json:"tip_cents"`
	IAC           uint64 `json:"iac"`
	SendPAN       bool   `json:"send_pan"`
	TimeoutMS     int    `json:"timeout_ms,omitempty"`
}

type reversalRequestDTO struct {
	ReceiptNumber string `json:"receipt_number"`
	TerminalID    string `json:"terminal_id"`
	TransactionID string `json:"transaction_id"`
	CashierID     string `json:"cashier_id"`
	TimeoutMS     int    `json:"timeout_ms,omitempty"`
}

// terminalResponseDTO mirrors tef.TerminalResponse for JSON output.
// Declined responses are HTTP 200 with approved:false.
type terminalResponseDTO struct {
	Fields          map[string]string `json:"fields,omitempty"`
	ResponseCode    string            `json:"response_code"`
	Message         string            `json:"message"`
	AuthCode        string            `json:"auth_code,omitempty"`
	Amount          string            `json:"amount,omitempty"`
	Franchise       string            `json:"franchise,omitempty"`
	AccountType     string            `json:"account_type,omitempty"`
	Last4           string            `json:"last4,omitempty"`
	MaskedPAN       string            `json:"masked_pan,omitempty"`
	ReceiptNumber   string            `json:"receipt_number,omitempty"`
	TransactionDate string            `json:"transaction_date,omitempty"`
	TransactionTime string            `json:"transaction_time,omitempty"`
	Approved        bool              `json:"approved"`
}

func fieldsToJSON(fields map[string]frame.Field) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, f := range fields {
		out[k] = f.ASCIITrimmed()
	}
	return out
}

type statusResponseDTO struct {
	Port      string `json:"port"`
	Connected bool   `json:"connected"`
	Baud      int    `json:"baud"`
	MockMode  bool   `json:"mock_mode"`
}

type connectRequestDTO struct {
	Port string `json:"port"`
}

type errorResponseDTO struct {
	Error string `json:"error"`
}
