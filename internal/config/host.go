package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rigcore/inputproxy/devicebus"
	"github.com/rigcore/inputproxy/examples/providers"
	"github.com/rigcore/inputproxy/internal/log"
	"github.com/rigcore/inputproxy/kvstore"
	"github.com/rigcore/inputproxy/pairing"
	"github.com/rigcore/inputproxy/rpc"
	"github.com/rigcore/inputproxy/serialtransport"
)

// Run opens the UART/CDC link, optionally pairs it, and bridges it to a
// local device socket table: the peripheral drives this process's
// HostControl handlers over RPC to plug devices, switch mode, and report
// axis input, while this process pings the peripheral's PeripheralControl
// surface to track liveness.
func (h *Host) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := serialtransport.OpenUART(h.UartPath, h.Baud)
	if err != nil {
		return fmt.Errorf("host: open uart: %w", err)
	}
	defer conn.Close()

	transport := conn
	if h.PairKey != "" {
		key, err := resolvePairKey(h.PairKey)
		if err != nil {
			return fmt.Errorf("host: %w", err)
		}
		logger.Info("pairing with peripheral")
		paired, err := pairing.WrapClient(transport, key)
		if err != nil {
			return fmt.Errorf("host: pairing handshake: %w", err)
		}
		transport = paired
		logger.Info("pairing established")
	}

	store, closeStore, err := kvstore.OpenFileStore(h.StorePath)
	if err != nil {
		return fmt.Errorf("host: open store: %w", err)
	}
	defer closeStore()
	if err := store.Load(); err != nil {
		return fmt.Errorf("host: load store: %w", err)
	}

	bus := devicebus.New(storeModeToBusMode(store.Mode()))
	logger.Info("device bus ready", "mode", store.Mode(), "configDescriptorLen", len(bus.ConfigurationDescriptor()))

	manager := rpc.NewManager(rpc.Config{DefaultTimeout: h.CallTimeout})
	manager.AddInputFilter(rpc.NewFrameInputFilter())
	manager.AddOutputFilter(rpc.NewFrameOutputFilter())
	manager.OnSend(func(b []byte) {
		rawLogger.Log(false, b)
		if _, err := transport.Write(b); err != nil {
			logger.Error("write to peripheral failed", "error", err)
		}
	})
	manager.OnError(func(e rpc.Error) {
		logger.Warn("rpc fabric error", "kind", e.Kind, "providerId", e.ProviderID, "methodId", e.MethodID)
	})

	hostControl := &providers.HostControl{
		Ping:            func() string { return "pong" },
		SetLED:          func(status providers.LEDStatus) { logger.Debug("peripheral set LED", "status", status) },
		GetLEDStatus:    func() providers.LEDStatus { return providers.LEDStatus{} },
		RebootFlashMode: func() { logger.Info("peripheral requested flash-mode reboot") },
		Reboot:          func() { logger.Info("peripheral requested reboot") },
		SetAxis: func(v providers.AxisValue) {
			bus.SetAxis(int(v.Socket), int(v.Code), uint32(uint16(v.Value)))
		},
		SetMode: func(mode string) bool {
			if err := store.SetMode(mode); err != nil {
				logger.Warn("rejected mode change", "mode", mode, "error", err)
				return false
			}
			if err := store.Save(); err != nil {
				logger.Error("failed to persist mode", "error", err)
				return false
			}
			logger.Info("mode changed, reboot required to take effect", "mode", mode)
			return true
		},
		GetMode: func() string { return store.Mode() },
		PlugDevice: func(socket int32, kind string, name string) bool {
			k, err := busKindFromString(kind)
			if err != nil {
				logger.Warn("plug rejected", "kind", kind, "error", err)
				return false
			}
			if err := bus.Plug(int(socket), k, name); err != nil {
				logger.Warn("plug failed", "socket", socket, "error", err)
				return false
			}
			return true
		},
		UnplugDevice: func(socket int32) bool {
			if err := bus.Unplug(int(socket)); err != nil {
				logger.Warn("unplug failed", "socket", socket, "error", err)
				return false
			}
			return true
		},
	}
	if err := manager.RegisterServer(providers.HostControlProviderID, hostControl); err != nil {
		return fmt.Errorf("host: register HostControl: %w", err)
	}

	var peripheralClient providers.PeripheralControl
	if err := manager.NewClient(providers.PeripheralControlProviderID, &peripheralClient); err != nil {
		return fmt.Errorf("host: build PeripheralControl client: %w", err)
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

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down host")
			return nil
		case err := <-readErrCh:
			return fmt.Errorf("host: transport read: %w", err)
		case <-ticker.C:
			if reply := peripheralClient.Ping(); reply != "" {
				logger.Debug("peripheral liveness", "reply", reply)
			}
		}
	}
}

func storeModeToBusMode(mode string) devicebus.Mode {
	if mode == kvstore.ModeXInput {
		return devicebus.ModeXInput
	}
	return devicebus.ModeHID
}

func busKindFromString(kind string) (devicebus.Kind, error) {
	switch kind {
	case "keyboard":
		return devicebus.KindKeyboard, nil
	case "mouse":
		return devicebus.KindMouse, nil
	case "gamepad":
		return devicebus.KindHIDGamepad, nil
	case "xbox-gamepad":
		return devicebus.KindXboxGamepad, nil
	default:
		return 0, fmt.Errorf("unknown device kind %q", kind)
	}
}
