/*
Package tef implements the Credibanco TEF II serial protocol engine and
the transaction coordinator that bridges a point-of-sale web application
to a card-payment terminal ("datáfono").

The package is organized leaf-first:

  - internal/frame: pure, stateless encoding/decoding of framed binary
    messages — control characters, TLV fields, and the LRC checksum.
  - transport: the SerialTransport contract, plus a real serial
    implementation (transport/serial) and an in-memory one for
    development and tests (transport/mock).
  - tef (this package): Coordinator, the stateful orchestrator that owns
    a transport, reassembles inbound bytes into frames, dispatches ACKs,
    enforces per-transaction timeouts, and serializes at most one
    in-flight transaction.

Basic usage:

	tr := serial.New(nil)
	c := tef.New(tr, nil)
	if err := c.Connect(ctx, "/dev/ttyUSB0"); err != nil {
	    log.Fatal(err)
	}
	defer c.Disconnect()

	resp, err := c.SendPurchase(ctx, tef.PurchaseRequest{
	    AmountCents:   5000000,
	    TerminalID:    "001",
	    TransactionID: "T000000001",
	    CashierID:     "OSCROM",
	}, 0)
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(resp.Approved, resp.Message)

Declined transactions are not errors: Approved is false and Message
carries the datáfono's response-code dictionary text. Inbound frames that
fail to decode (malformed frames, checksum mismatches) are logged and
dropped rather than returned; a transaction that receives no valid frame
ends with a timeout. Invalid requests, busy, not-connected, timeouts,
closed, and transport errors are returned as errors.

The package does not persist transactions, reconcile clearing batches, or
manage cryptographic key loading to the terminal.
*/
package tef
