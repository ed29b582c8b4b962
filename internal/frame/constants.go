// Package frame provides frame manipulation and protocol constants for the
// Credibanco TEF II serial protocol: control bytes, header layout, TLV
// field encoding, and the LRC checksum.
package frame

// Control bytes used throughout the TEF II wire protocol.
const (
	STX       = 0x02 // start of frame
	ETX       = 0x03 // end of frame
	Separator = 0x1C // field delimiter
	ACK       = 0x06 // transport-level acknowledgement
	NACK      = 0x15 // transport-level negative acknowledgement
)

// TransportHeader is the fixed 10-byte decimal-ASCII transport header
// emitted after the length prefix on every frame.
const TransportHeader = "6000000000"

// Presentation headers select the operation carried by a frame. Each is a
// fixed 7-byte ASCII literal. PurchaseHeader is emitted unchanged
// regardless of the caller's send_pan flag (PurchaseFields carries no
// send_pan value).
const (
	PurchaseHeader     = "1000000"
	ReversalHeader     = "1002000"
	HandshakeHeader    = "1000  0" // two embedded spaces; pre-purchase handshake variant only
	BalanceHeader      = "1004000"
	CashAdvanceHeader  = "1006000"
	CloseHeader        = "1008000"
	CouponHeader       = "1010000"
	BonoRechargeHeader = "1012000"
)

// MinFrameLength is the shortest byte sequence that can possibly be a
// frame: STX + 4-digit length + ETX + LRC.
const MinFrameLength = 1 + 4 + 1 + 1

// LengthFieldWidth is the width, in ASCII bytes, of the decimal length
// prefix that follows STX.
const LengthFieldWidth = 4
