//go:build !linux

package cmd

import (
	"errors"
	"log/slog"
)

var errUnsupported = errors.New("service install is only supported on linux")

// Install always fails on non-linux platforms; service management here is
// systemd-only.
func Install(logger *slog.Logger, uartArgs []string) error {
	return errUnsupported
}

// Uninstall always fails on non-linux platforms.
func Uninstall(logger *slog.Logger) error {
	return errUnsupported
}
