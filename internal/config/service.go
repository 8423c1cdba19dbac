package config

import (
	"log/slog"

	"github.com/rigcore/inputproxy/internal/cmd"
)

// ServiceCommand groups systemd service management subcommands for
// running the host side unattended.
type ServiceCommand struct {
	Install   ServiceInstall   `cmd:"" help:"Install and start the systemd unit."`
	Uninstall ServiceUninstall `cmd:"" help:"Stop and remove the systemd unit."`
}

// ServiceInstall writes, enables, and starts the systemd unit.
type ServiceInstall struct {
	UartPath string `arg:"" name:"uart-path" help:"Path passed to 'host' in the generated unit."`
}

func (s *ServiceInstall) Run(logger *slog.Logger) error {
	return cmd.Install(logger, []string{s.UartPath})
}

// ServiceUninstall stops and removes the systemd unit.
type ServiceUninstall struct{}

func (s *ServiceUninstall) Run(logger *slog.Logger) error {
	return cmd.Uninstall(logger)
}
