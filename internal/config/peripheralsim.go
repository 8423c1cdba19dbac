package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rigcore/inputproxy/examples/providers"
	"github.com/rigcore/inputproxy/internal/log"
	"github.com/rigcore/inputproxy/pairing"
	"github.com/rigcore/inputproxy/rpc"
)

// Run listens for a single simulated host connection and answers
// PeripheralControl calls, standing in for the microcontroller side of
// the link so the whole round trip is exercisable without hardware.
func (p *PeripheralSim) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", p.ListenAddr)
	if err != nil {
		return fmt.Errorf("peripheral-sim: listen: %w", err)
	}
	defer ln.Close()
	logger.Info("peripheral-sim listening", "addr", p.ListenAddr)

	connCh := make(chan net.Conn, 1)
	acceptErrCh := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			acceptErrCh <- err
			return
		}
		connCh <- conn
	}()

	var conn net.Conn
	select {
	case <-ctx.Done():
		return nil
	case err := <-acceptErrCh:
		return fmt.Errorf("peripheral-sim: accept: %w", err)
	case conn = <-connCh:
	}
	defer conn.Close()
	logger.Info("host connected", "remote", conn.RemoteAddr())

	var transport io.ReadWriteCloser = conn
	if p.PairKey != "" {
		key, err := resolvePairKey(p.PairKey)
		if err != nil {
			return fmt.Errorf("peripheral-sim: %w", err)
		}
		paired, err := pairing.WrapServer(conn, key)
		if err != nil {
			return fmt.Errorf("peripheral-sim: pairing handshake: %w", err)
		}
		transport = paired
		logger.Info("pairing established")
	}

	manager := rpc.NewManager(rpc.Config{DefaultTimeout: p.CallTimeout})
	manager.AddInputFilter(rpc.NewFrameInputFilter())
	manager.AddOutputFilter(rpc.NewFrameOutputFilter())
	manager.OnSend(func(b []byte) {
		rawLogger.Log(false, b)
		if _, err := transport.Write(b); err != nil {
			logger.Error("write to host failed", "error", err)
		}
	})
	manager.OnError(func(e rpc.Error) {
		logger.Warn("rpc fabric error", "kind", e.Kind, "providerId", e.ProviderID, "methodId", e.MethodID)
	})

	peripheralControl := &providers.PeripheralControl{
		Ping:       func() string { return "pong" },
		DebugPrint: func(line string) { logger.Info("peripheral debug", "line", line) },
		OnBoot: func() *rpc.Future[bool] {
			fut := &rpc.Future[bool]{}
			fut.Resolve(true)
			return fut
		},
	}
	if err := manager.RegisterServer(providers.PeripheralControlProviderID, peripheralControl); err != nil {
		return fmt.Errorf("peripheral-sim: register PeripheralControl: %w", err)
	}

	var hostClient providers.HostControl
	if err := manager.NewClient(providers.HostControlProviderID, &hostClient); err != nil {
		return fmt.Errorf("peripheral-sim: build HostControl client: %w", err)
	}

	readErrCh := make(chan error, 1)
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := transport.Read(buf)
			if err != nil {
				readErrCh <- err
				return
			}
			chunk := append([]byte(nil), buf[:n]...)
			rawLogger.Log(true, chunk)
			manager.ProcessInput(chunk)
		}
	}()

	if reply := hostClient.Ping(); reply != "" {
		logger.Info("initial host liveness check", "reply", reply)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down peripheral-sim")
		return nil
	case err := <-readErrCh:
		return fmt.Errorf("peripheral-sim: transport read: %w", err)
	}
}
