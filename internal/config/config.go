// Package config defines the CLI surface: a single Kong-annotated root
// command with host and peripheral-sim subcommands, loaded from flags,
// environment variables, and layered JSON/YAML/TOML configuration files
// exactly as the teacher's own CLI entry point does.
package config

import "time"

// LogConfig groups the logging flags shared by every subcommand.
type LogConfig struct {
	Level   string `help:"Log level: trace, debug, info, warn, error" default:"info" enum:"trace,debug,info,warn,error" env:"INPUTPROXY_LOG_LEVEL"`
	File    string `help:"Write logs to this file instead of stdout/stderr" env:"INPUTPROXY_LOG_FILE"`
	RawFile string `help:"Write a hex dump of every byte crossing the transport to this file" env:"INPUTPROXY_RAW_LOG_FILE"`
}

// CLI is the root command Kong parses into.
type CLI struct {
	ConfigFile string    `name:"config" help:"Path to a config file (overrides the usual search order)"`
	Log        LogConfig `embed:"" prefix:"log."`

	Host          Host          `cmd:"" help:"Run the driving-computer side: bridge a UART/CDC link to the device socket table."`
	PeripheralSim PeripheralSim `cmd:"" name:"peripheral-sim" help:"Run a host-stand-in for the microcontroller side, for end-to-end testing without hardware."`
	Config        ConfigCommand `cmd:"" help:"Generate a configuration file template."`
	Service       ServiceCommand `cmd:"" help:"Install or remove the systemd unit that runs 'host' as a service (linux only)."`
}

// Host bridges a serial transport to the device socket table: it is the
// driving-computer process a real deployment runs continuously.
type Host struct {
	UartPath    string        `arg:"" name:"uart-path" help:"Path to the UART or USB-CDC device node (e.g. /dev/ttyACM0)."`
	Baud        int           `help:"Baud rate" default:"115200"`
	PairKey     string        `help:"Shared passphrase; when set, the transport is wrapped in an authenticated encrypted session. Use - to be prompted" env:"INPUTPROXY_PAIR_KEY"`
	StorePath   string        `help:"Path to the persistent mode/deviceId key-value record" default:"inputproxy.kv" env:"INPUTPROXY_STORE_PATH"`
	CallTimeout time.Duration `help:"Default RPC call timeout" default:"2s"`
}

// PeripheralSim stands in for the microcontroller side: it listens for a
// host connection over TCP, answers PeripheralControl calls, and pings the
// host's HostControl provider, so the RPC round trip is exercisable on one
// machine. It keeps no device socket table of its own.
type PeripheralSim struct {
	ListenAddr  string        `help:"TCP address to listen on for a simulated host connection" default:"127.0.0.1:7350"`
	PairKey     string        `help:"Shared passphrase; when set, incoming connections must complete a pairing handshake. Use - to be prompted" env:"INPUTPROXY_PAIR_KEY"`
	CallTimeout time.Duration `help:"Default RPC call timeout" default:"2s"`
}
