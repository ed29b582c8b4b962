// Command tefbridged runs the HTTP bridge between the POS web application
// and the datáfono: it loads configuration, constructs the transport
// (real or mock), wires it into a tef.Coordinator, and serves the
// httpapi routes. Grounded on go-pn532/cmd/nfctest/main.go's flag
// parsing and signal-based graceful shutdown, and on
// punchamoorthee-ledgerops/cmd/api/main.go's router/metrics/health wiring.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	tef "github.com/OmegaSebastianSandoval/kiosko-tef-bridge"
	"github.com/OmegaSebastianSandoval/kiosko-tef-bridge/httpapi"
	"github.com/OmegaSebastianSandoval/kiosko-tef-bridge/httpapi/config"
	"github.com/OmegaSebastianSandoval/kiosko-tef-bridge/internal/transport"
	tftransport "github.com/OmegaSebastianSandoval/kiosko-tef-bridge/transport"
	tefmock "github.com/OmegaSebastianSandoval/kiosko-tef-bridge/transport/mock"
	"github.com/OmegaSebastianSandoval/kiosko-tef-bridge/transport/serial"
)

func main() {
	os.Exit(run())
}

func run() int {
	mockFlag := flag.Bool("mock", false, "use the in-memory mock transport instead of a real serial port")
	portFlag := flag.String("port", "", "serial device path (overrides TEF_SERIAL_PORT)")
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides TEF_HTTP_ADDR)")
	verboseFlag := flag.Bool("verbose", false, "enable debug-level logging")
	flag.Parse()

	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verboseFlag {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := config.Load()
	if *mockFlag {
		cfg.MockMode = true
	}
	if *portFlag != "" {
		cfg.SerialPort = *portFlag
	}
	if *addrFlag != "" {
		cfg.HTTPAddr = *addrFlag
	}
	if !cfg.MockMode && cfg.SerialPort == "" {
		log.Fatal("serial.port is required unless -mock is set")
	}

	var tr tftransport.SerialTransport
	if cfg.MockMode {
		tr = tefmock.New(log)
		log.Info("using mock transport")
	} else {
		tr = serial.New(log)
	}

	coordinator := tef.New(tr, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connectCancel()

	tcfg := tftransport.Config{
		PortPath: cfg.SerialPort,
		Baud:     cfg.SerialBaud,
		DataBits: cfg.SerialDataBits,
		StopBits: cfg.SerialStopBits,
		Parity:   cfg.SerialParity,
	}
	var lastConnectErr error
	_, err := transport.WithRetry(transport.Config{
		Description: "connect to datáfono",
		MaxRetries:  3,
		RetryDelay:  time.Second,
		OnRetry: func(attempt int, _ error) {
			log.WithError(lastConnectErr).Warnf("datáfono connect attempt %d failed, retrying", attempt)
		},
	}, func() (struct{}, bool, error) {
		lastConnectErr = coordinator.ConnectWithConfig(connectCtx, tcfg)
		return struct{}{}, lastConnectErr != nil, nil
	})
	if err != nil {
		log.WithError(lastConnectErr).Fatal("failed to connect to datáfono")
	}
	defer func() { _ = coordinator.Disconnect() }()

	handler := httpapi.NewHandler(coordinator, log, cfg.MockMode, cfg.TEFTimeout)
	router := handler.Router()
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down gracefully")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.HTTPAddr).Info("tefbridged listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Error("server error")
		return 1
	}
	return 0
}
