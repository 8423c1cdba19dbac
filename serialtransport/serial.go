// Package serialtransport opens the byte-sink/byte-source transports the
// RPC fabric runs over: a UART link to a microcontroller and a USB-CDC
// link exposed as the same kind of TTY device node on the host.
package serialtransport

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// baudRates maps a requested integer baud rate to the termios speed
// constant golang.org/x/sys/unix defines for it.
var baudRates = map[int]uint32{
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	921600:  unix.B921600,
	1000000: unix.B1000000,
}

// Port is an open serial device. It satisfies io.ReadWriteCloser, the
// only contract the core's transport argument requires.
type Port struct {
	f *os.File
}

// Open opens path and configures it raw, 8N1, no flow control, at baud
// (115200 by default per the shipped UART link). The same call serves the
// USB-CDC link, which enumerates as an ordinary TTY node on the host.
func Open(path string, baud int) (*Port, error) {
	if baud == 0 {
		baud = 115200
	}
	speed, ok := baudRates[baud]
	if !ok {
		return nil, fmt.Errorf("serialtransport: unsupported baud rate %d", baud)
	}

	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("serialtransport: open %s: %w", path, err)
	}

	fd := int(f.Fd())
	// Clear O_NONBLOCK once opened: Poll-based waiting (coro.WaitFile)
	// owns readiness, not non-blocking read/write semantics here.
	if err := unix.SetNonblock(fd, false); err != nil {
		f.Close()
		return nil, fmt.Errorf("serialtransport: clear nonblock: %w", err)
	}

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("serialtransport: get termios: %w", err)
	}

	makeRaw(t)
	t.Cflag &^= unix.CBAUD
	t.Cflag |= speed | unix.CLOCAL | unix.CREAD
	t.Cflag &^= unix.CSTOPB | unix.PARENB | unix.CRTSCTS
	t.Cflag = (t.Cflag &^ unix.CSIZE) | unix.CS8
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		f.Close()
		return nil, fmt.Errorf("serialtransport: set termios: %w", err)
	}

	return &Port{f: f}, nil
}

// OpenUART is Open with an explicit name for the UART link the
// microcontroller side speaks.
func OpenUART(path string, baud int) (io.ReadWriteCloser, error) {
	return Open(path, baud)
}

// DialCDC opens a USB-CDC device node. It is a thin alias for Open: the
// desktop-to-microcontroller CDC link and the microcontroller-to-host
// UART link are configured identically and both show up as ordinary TTY
// nodes on the host.
func DialCDC(path string) (*Port, error) {
	return Open(path, 115200)
}

func makeRaw(t *unix.Termios) {
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8
}

// Fd returns the underlying file descriptor, for use with coro.WaitFile.
func (p *Port) Fd() int { return int(p.f.Fd()) }

func (p *Port) Read(b []byte) (int, error)  { return p.f.Read(b) }
func (p *Port) Write(b []byte) (int, error) { return p.f.Write(b) }
func (p *Port) Close() error                { return p.f.Close() }

var _ io.ReadWriteCloser = (*Port)(nil)
