package tef

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/OmegaSebastianSandoval/kiosko-tef-bridge/internal/frame"
	"github.com/OmegaSebastianSandoval/kiosko-tef-bridge/transport"
)

// Coordinator drives the half-duplex serial exchange with the datáfono:
// it owns the transport, reassembles inbound bytes into frames, dispatches
// ACKs, enforces per-transaction timeouts, and serializes at most one
// in-flight transaction.
//
// All mutable state (pending transaction, reassembly buffer, connection
// status) is owned by a single goroutine started in Connect and driven by
// a command channel, modeled on go-pn532/transport_context.go's
// context-deadline-vs-result-channel pattern generalized from one-shot
// command/response into a long-lived event loop.
type Coordinator struct {
	tr  transport.SerialTransport
	log *logrus.Entry

	conn *connHandle
}

// New builds a Coordinator over tr. tr is not opened until Connect is
// called. log may be nil, in which case a standard logrus logger is used.
func New(tr transport.SerialTransport, log *logrus.Logger) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Coordinator{
		tr:  tr,
		log: log.WithField("component", "tef.coordinator"),
	}
}

// connHandle is the one piece of state shared between a Coordinator and its
// event loop's goroutine: the command channel a caller submits work on, and
// whether the loop has since torn itself down. The event loop clears cmds
// itself — both on an explicit Disconnect and on a fatal transport error —
// so a caller submitting work after either never blocks forever waiting on
// a loop that has already exited.
type connHandle struct {
	mu          sync.Mutex
	cmds        chan any
	done        chan struct{}
	closedByErr bool
}

func (h *connHandle) get() (cmds chan any, done chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cmds, h.done
}

// clear marks the handle closed. byErr distinguishes a fatal transport
// error (callers get ErrClosed) from an explicit Disconnect (callers get
// ErrNotConnected, since the coordinator is simply idle, not broken).
func (h *connHandle) clear(byErr bool) {
	h.mu.Lock()
	h.cmds = nil
	h.closedByErr = byErr
	h.mu.Unlock()
}

func (h *connHandle) closedByTransportError() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cmds == nil && h.closedByErr
}

// pending is the in-flight transaction's state, owned exclusively by the
// event-loop goroutine.
type pending struct {
	resultCh chan transactionResult
	timer    *time.Timer
}

type transactionResult struct {
	response TerminalResponse
	err      error
}

// Command messages submitted to the event loop. Each request carries its
// own reply channel so the caller blocks on exactly the answer to its own
// call, never on another caller's.
type disconnectCmd struct {
	reply chan error
}

type sendCmd struct {
	reply   chan transactionResult
	encode  func() []byte
	timeout time.Duration
}

type statusCmd struct {
	reply chan ConnectionStatus
}

type bytesCmd struct {
	data []byte
}

type errorCmd struct {
	err error
}

type timeoutCmd struct {
	gen uint64
}

// Connect opens the transport at path (9600-8-N-1 defaults) and starts
// the event loop.
func (c *Coordinator) Connect(ctx context.Context, path string) error {
	return c.ConnectWithConfig(ctx, transport.Config{PortPath: path})
}

// ConnectWithConfig is Connect with the full transport.Config (baud,
// data/stop bits, parity).
func (c *Coordinator) ConnectWithConfig(ctx context.Context, cfg transport.Config) error {
	cfg = cfg.WithDefaults()
	if err := c.tr.Open(cfg); err != nil {
		return err
	}

	cmds := make(chan any, 16)
	done := make(chan struct{})
	conn := &connHandle{cmds: cmds, done: done}
	c.conn = conn

	status := ConnectionStatus{Port: cfg.PortPath, Baud: cfg.Baud, Connected: true}
	loop := &eventLoop{tr: c.tr, log: c.log, status: status, cmds: cmds, conn: conn}

	c.tr.OnBytes(func(b []byte) { cmds <- bytesCmd{data: b} })
	c.tr.OnError(func(err error) { cmds <- errorCmd{err: err} })

	go loop.run(done)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Disconnect closes the transport, failing any pending transaction with
// ErrClosed and stopping the event loop.
func (c *Coordinator) Disconnect() error {
	if c.conn == nil {
		return nil
	}
	cmds, done := c.conn.get()
	if cmds == nil {
		return nil
	}
	reply := make(chan error, 1)
	cmds <- disconnectCmd{reply: reply}
	err := <-reply
	<-done
	return err
}

// SendPurchase encodes req, writes it to the transport, and suspends
// until an approved/declined response, timeout, transport error, or close.
// A timeout of 0 uses DefaultTimeout. Only one call across the
// coordinator's lifetime may be in flight at a time; a second call made
// while one is pending returns ErrBusy synchronously.
func (c *Coordinator) SendPurchase(ctx context.Context, req PurchaseRequest, timeout time.Duration) (TerminalResponse, error) {
	if err := req.Validate(); err != nil {
		return TerminalResponse{}, err
	}
	fields := req.toFields()
	return c.send(ctx, func() []byte { return frame.EncodePurchase(fields) }, timeout)
}

// SendReversal is SendPurchase's counterpart for ReversalRequest. The
// reversal field profile is the best-effort one documented in
// internal/frame.EncodeReversal (vendor-unconfirmed).
func (c *Coordinator) SendReversal(ctx context.Context, req ReversalRequest, timeout time.Duration) (TerminalResponse, error) {
	if err := req.Validate(); err != nil {
		return TerminalResponse{}, err
	}
	fields := req.toFields()
	return c.send(ctx, func() []byte { return frame.EncodeReversal(fields) }, timeout)
}

func (c *Coordinator) send(ctx context.Context, encode func() []byte, timeout time.Duration) (TerminalResponse, error) {
	if c.conn == nil {
		return TerminalResponse{}, ErrNotConnected
	}
	cmds, _ := c.conn.get()
	if cmds == nil {
		if c.conn.closedByTransportError() {
			return TerminalResponse{}, ErrClosed
		}
		return TerminalResponse{}, ErrNotConnected
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	reply := make(chan transactionResult, 1)
	cmd := sendCmd{encode: encode, timeout: timeout, reply: reply}

	select {
	case cmds <- cmd:
	case <-ctx.Done():
		return TerminalResponse{}, ctx.Err()
	}

	select {
	case res := <-reply:
		return res.response, res.err
	case <-ctx.Done():
		return TerminalResponse{}, ctx.Err()
	}
}

// Status reports the coordinator's current connection state.
func (c *Coordinator) Status() ConnectionStatus {
	if c.conn == nil {
		return ConnectionStatus{}
	}
	cmds, done := c.conn.get()
	if cmds == nil {
		return ConnectionStatus{}
	}
	reply := make(chan ConnectionStatus, 1)
	select {
	case cmds <- statusCmd{reply: reply}:
		return <-reply
	case <-done:
		return ConnectionStatus{}
	}
}

// eventLoop owns every piece of mutable coordinator state. It is the sole
// goroutine that touches pending, reassembly buffer, and status, which is
// what makes the serialization guarantee hold without a mutex: writes,
// timer expirations, and inbound byte deliveries all funnel through the
// same cmds channel and are processed one at a time.
type eventLoop struct {
	tr     transport.SerialTransport
	log    *logrus.Entry
	cmds   chan any
	conn   *connHandle
	status ConnectionStatus

	buf []byte
	cur *pending
	gen uint64
}

func (l *eventLoop) run(done chan struct{}) {
	defer close(done)
	for msg := range l.cmds {
		if l.handle(msg) {
			return
		}
	}
}

func (l *eventLoop) handle(msg any) (stop bool) {
	switch m := msg.(type) {
	case sendCmd:
		l.handleSend(m)
	case disconnectCmd:
		l.handleDisconnect(m)
		return true
	case statusCmd:
		m.reply <- l.status
	case bytesCmd:
		l.handleBytes(m.data)
	case errorCmd:
		l.handleTransportError(m.err)
		return true
	case timeoutCmd:
		l.handleTimeout(m)
	}
	return false
}

func (l *eventLoop) handleSend(m sendCmd) {
	if l.cur != nil {
		m.reply <- transactionResult{err: ErrBusy}
		return
	}

	raw := m.encode()
	l.gen++
	gen := l.gen
	cmds := l.cmds
	timer := time.AfterFunc(m.timeout, func() {
		cmds <- timeoutCmd{gen: gen}
	})
	l.cur = &pending{resultCh: m.reply, timer: timer}

	if err := l.tr.Write(raw); err != nil {
		l.completeCurrent(transactionResult{err: NewTransportError("write", l.status.Port, err, ErrorTypeTransient)})
		l.status.Connected = false
	}
}

func (l *eventLoop) handleDisconnect(m disconnectCmd) {
	err := l.tr.Close()
	l.status.Connected = false
	if l.cur != nil {
		l.completeCurrent(transactionResult{err: ErrClosed})
	}
	l.conn.clear(false)
	m.reply <- err
}

// handleTransportError reacts to a fatal read/write failure surfaced by the
// transport (e.g. the port was unplugged): the coordinator is left in the
// same terminal state an explicit Disconnect leaves it in — the transport
// is closed, any pending transaction fails, and the event loop stops — so
// a caller that keeps calling SendPurchase/SendReversal afterward gets
// ErrClosed immediately instead of being forwarded into a dead loop.
func (l *eventLoop) handleTransportError(err error) {
	l.log.WithError(err).Warn("transport error, closing coordinator")
	l.status.Connected = false
	_ = l.tr.Close()
	if l.cur != nil {
		l.completeCurrent(transactionResult{err: NewTransportError("read", l.status.Port, err, ErrorTypeTransient)})
	}
	l.conn.clear(true)
}

func (l *eventLoop) handleTimeout(m timeoutCmd) {
	if l.cur == nil || m.gen != l.gen {
		return // stale timer for an already-completed transaction
	}
	l.completeCurrent(transactionResult{err: ErrTimeout})
}

// completeCurrent delivers res to the pending transaction's caller and
// clears the pending slot.
func (l *eventLoop) completeCurrent(res transactionResult) {
	if l.cur == nil {
		return
	}
	l.cur.timer.Stop()
	l.cur.resultCh <- res
	l.cur = nil
}

// handleBytes implements the reassembly algorithm: drop a lone ACK,
// discard leading garbage before STX, wait for a full frame (sized off its
// own decimal length prefix via frame.FrameLength, not by scanning for
// ETX, since a field value could itself contain an ETX byte), validate,
// ACK valid frames or NACK ones that fail their checksum, and keep
// scanning for a second queued frame in the remainder.
func (l *eventLoop) handleBytes(data []byte) {
	l.buf = append(l.buf, data...)

	for {
		if len(l.buf) == 1 && l.buf[0] == frame.ACK {
			l.buf = nil
			return
		}

		stxAt := indexByte(l.buf, frame.STX)
		if stxAt < 0 {
			l.buf = nil // no frame start in sight; drop stale bytes
			return
		}
		if stxAt > 0 {
			l.buf = l.buf[stxAt:]
		}

		total, ok := frame.FrameLength(l.buf)
		if !ok {
			return // length prefix hasn't fully arrived yet
		}
		if total > len(l.buf) {
			return // frame body not fully arrived yet
		}

		candidate := l.buf[:total]
		l.buf = l.buf[total:]

		decoded, err := frame.Decode(candidate)
		if err != nil {
			l.handleMalformedFrame(err)
			continue
		}

		if writeErr := l.tr.Write([]byte{frame.ACK}); writeErr != nil {
			l.log.WithError(writeErr).Warn("failed to ACK valid frame")
		}

		if l.cur != nil {
			l.completeCurrent(transactionResult{response: fromDecoded(decoded)})
		}
		// Late-arriving bytes for an already-timed-out request are parsed
		// and ACKed above, but the response is dropped since l.cur is nil.

		if len(l.buf) == 0 {
			return
		}
		// fall through: a second frame may be queued in the remainder
	}
}

// handleMalformedFrame reports a frame that failed decoding. A checksum
// failure gets a NACK, per the transport-level retry the datáfono expects
// on a bad LRC; anything else (a short or unparseable candidate) is logged
// and dropped, since there is no well-formed frame to ask the terminal to
// resend.
func (l *eventLoop) handleMalformedFrame(err error) {
	if mismatch, ok := asChecksumMismatch(err); ok {
		l.log.WithError(mismatch).Warn("checksum mismatch, sending NACK")
		if writeErr := l.tr.Write([]byte{frame.NACK}); writeErr != nil {
			l.log.WithError(writeErr).Warn("failed to NACK malformed frame")
		}
		return
	}
	l.log.WithError(err).Warn("discarding malformed frame")
}

func indexByte(b []byte, v byte) int {
	for i, c := range b {
		if c == v {
			return i
		}
	}
	return -1
}
