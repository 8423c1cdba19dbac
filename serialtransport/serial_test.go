package serialtransport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"golang.org/x/sys/unix"
)

func TestMakeRawClearsCookedModeFlags(t *testing.T) {
	term := &unix.Termios{
		Iflag: unix.ICRNL | unix.IXON,
		Oflag: unix.OPOST,
		Lflag: unix.ECHO | unix.ICANON | unix.ISIG,
		Cflag: unix.PARENB | unix.CS7,
	}
	makeRaw(term)

	assert.Zero(t, term.Iflag&unix.ICRNL)
	assert.Zero(t, term.Oflag&unix.OPOST)
	assert.Zero(t, term.Lflag&(unix.ECHO|unix.ICANON|unix.ISIG))
	assert.Zero(t, term.Cflag&unix.PARENB)
	assert.NotZero(t, term.Cflag&unix.CS8)
}

func TestOpenRejectsUnsupportedBaud(t *testing.T) {
	_, err := Open("/dev/null", 12345)
	assert.Error(t, err)
}

func TestBaudTableSupports115200(t *testing.T) {
	_, ok := baudRates[115200]
	assert.True(t, ok)
}
