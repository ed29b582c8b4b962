// Package serial implements transport.SerialTransport over a real RS-232
// line using go.bug.st/serial.
package serial

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	goserial "go.bug.st/serial"

	"github.com/OmegaSebastianSandoval/kiosko-tef-bridge/transport"
)

// fallbackPrefixes are the conventional POSIX tty paths probed when the
// configured port name is the literal "COM3", can't be opened directly,
// and the host isn't Windows. Grounded on go-pn532/detection's USB-device enumeration,
// generalized here from PN532-specific VID/PID probing down to a plain
// path-prefix fallback list, since the datáfono exposes no VID/PID the
// way a PN532 USB-UART bridge does.
var fallbackPrefixes = []string{
	"/dev/ttyUSB",
	"/dev/ttyACM",
	"/dev/tty.usbserial",
}

// Transport is a transport.SerialTransport backed by an OS serial port.
type Transport struct {
	log *logrus.Entry

	mu      sync.Mutex
	port    goserial.Port
	onBytes func([]byte)
	onError func(error)
	closed  chan struct{}
	closing bool
}

// New creates an unopened serial transport. log may be nil, in which case
// a standard logrus logger is used.
func New(log *logrus.Logger) *Transport {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Transport{log: log.WithField("component", "transport.serial")}
}

// Open resolves cfg.PortPath to an openable device and starts the read
// loop. Opening an already-open transport returns transport.ErrAlreadyOpen.
func (t *Transport) Open(cfg transport.Config) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port != nil {
		return transport.ErrAlreadyOpen
	}

	cfg = cfg.WithDefaults()
	mode := &goserial.Mode{
		BaudRate: cfg.Baud,
		DataBits: cfg.DataBits,
		StopBits: stopBits(cfg.StopBits),
		Parity:   parity(cfg.Parity),
	}

	port, resolved, err := openWithFallback(cfg.PortPath, mode)
	if err != nil {
		return fmt.Errorf("serial: open %s: %w", cfg.PortPath, err)
	}
	t.log.Infof("opened serial port %s (requested %s)", resolved, cfg.PortPath)

	t.port = port
	t.closed = make(chan struct{})
	go t.readLoop(port, t.closed)
	return nil
}

// openWithFallback tries portPath directly; if portPath is the literal
// "COM3" placeholder and the host isn't Windows, it walks
// serial.GetPortsList() looking for a path under fallbackPrefixes.
func openWithFallback(portPath string, mode *goserial.Mode) (goserial.Port, string, error) {
	port, err := goserial.Open(portPath, mode)
	if err == nil {
		return port, portPath, nil
	}
	if portPath != "COM3" || runtime.GOOS == "windows" {
		return nil, "", err
	}

	candidates, listErr := goserial.GetPortsList()
	if listErr != nil {
		return nil, "", err
	}
	for _, candidate := range candidates {
		if !hasFallbackPrefix(candidate) {
			continue
		}
		if port, openErr := goserial.Open(candidate, mode); openErr == nil {
			return port, candidate, nil
		}
	}
	return nil, "", fmt.Errorf("%w (no fallback tty found among %v)", err, candidates)
}

func hasFallbackPrefix(path string) bool {
	for _, prefix := range fallbackPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// ListPorts enumerates the OS-visible serial ports, for the HTTP bridge's
// diagnostic /api/v1/ports route.
func ListPorts() ([]string, error) {
	ports, err := goserial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("serial: list ports: %w", err)
	}
	return ports, nil
}

// Write sends data unmodified to the port and drains the output buffer.
func (t *Transport) Write(data []byte) error {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()

	if port == nil {
		return transport.ErrNotOpen
	}
	if _, err := port.Write(data); err != nil {
		return fmt.Errorf("serial: write: %w", err)
	}
	if err := port.Drain(); err != nil {
		return fmt.Errorf("serial: drain: %w", err)
	}
	return nil
}

// Close stops the read loop and releases the port.
func (t *Transport) Close() error {
	t.mu.Lock()
	port := t.port
	closed := t.closed
	t.port = nil
	t.mu.Unlock()

	if port == nil {
		return nil
	}
	err := port.Close()
	if closed != nil {
		<-closed
	}
	if err != nil {
		return fmt.Errorf("serial: close: %w", err)
	}
	return nil
}

// OnBytes registers the inbound-byte callback.
func (t *Transport) OnBytes(fn func([]byte)) {
	t.mu.Lock()
	t.onBytes = fn
	t.mu.Unlock()
}

// OnError registers the read-loop error callback.
func (t *Transport) OnError(fn func(error)) {
	t.mu.Lock()
	t.onError = fn
	t.mu.Unlock()
}

func (t *Transport) readLoop(port goserial.Port, done chan struct{}) {
	defer close(done)
	buf := make([]byte, 4096)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			t.mu.Lock()
			cb := t.onBytes
			t.mu.Unlock()
			if cb != nil {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				cb(chunk)
			}
		}
		if err != nil {
			if err != io.EOF {
				t.mu.Lock()
				cb := t.onError
				t.mu.Unlock()
				if cb != nil {
					cb(fmt.Errorf("serial: read: %w", err))
				}
			}
			return
		}
	}
}

func stopBits(n int) goserial.StopBits {
	switch n {
	case 2:
		return goserial.TwoStopBits
	default:
		return goserial.OneStopBit
	}
}

func parity(p string) goserial.Parity {
	switch strings.ToUpper(p) {
	case "E":
		return goserial.EvenParity
	case "O":
		return goserial.OddParity
	default:
		return goserial.NoParity
	}
}
