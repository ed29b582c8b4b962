// Package testing provides canned TEF II response frames for the mock
// transport and for coordinator/httpapi tests, retargeted from
// go-pn532/internal/testing's Build*Response fixture-builder pattern at
// datáfono TLV frames instead of PN532 command responses.
package testing

import "github.com/OmegaSebastianSandoval/kiosko-tef-bridge/internal/frame"

// BuildApprovedPurchaseResponse builds the canned approved-purchase frame
// the mock transport delivers after its fixed delay: response code 00, an
// auth code, and an amount.
func BuildApprovedPurchaseResponse() []byte {
	return frame.EncodeResponse([]frame.ResponseField{
		{Type: "39", Value: "917107", Width: 6},
		{Type: "40", Value: "000000100000", Width: 12},
		{Type: "41", Value: "000000013799", Width: 12},
		{Type: "42", Value: "001", Width: 10},
		{Type: "43", Value: "0010", Width: 6},
		{Type: "44", Value: "00010", Width: 6},
		{Type: "45", Value: "00C1400", Width: 8},
		{Type: "46", Value: "150320", Width: 6},
		{Type: "47", Value: "142", Width: 4},
		{Type: "48", Value: "00", Width: 2},
		{Type: "49", Value: "VISA CR B", Width: 10},
		{Type: "50", Value: "CR", Width: 2},
		{Type: "51", Value: "01", Width: 2},
		{Type: "54", Value: "4627", Width: 4},
		{Type: "75", Value: "400558", Width: 6},
		{Type: "76", Value: "1512", Width: 4},
		{Type: "77", Value: "0108297778", Width: 23},
		{Type: "78", Value: "CALLE 22 No. 21-22", Width: 23},
		{Type: "79", Value: "00", Width: 2},
		{Type: "85", Value: "0000000000", Width: 12},
		{Type: "86", Value: "0000000000", Width: 12},
	})
}

// BuildDeclinedResponse builds a declined frame carrying the given
// field-48 response code — used by BuildInsufficientFundsResponse.
func BuildDeclinedResponse(code string) []byte {
	return frame.EncodeResponse([]frame.ResponseField{
		{Type: "48", Value: code, Width: 2},
	})
}

// BuildInsufficientFundsResponse builds a declined frame with field 48 =
// "51" (insufficient funds).
func BuildInsufficientFundsResponse() []byte {
	return BuildDeclinedResponse("51")
}

// BuildNoResponseCodeResponse omits field 48 entirely, exercising the
// absence-of-field-48 branch of the approval gate.
func BuildNoResponseCodeResponse() []byte {
	return frame.EncodeResponse([]frame.ResponseField{
		{Type: "39", Value: "000000", Width: 6},
	})
}
