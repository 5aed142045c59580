package source

import (
	"github.com/pkg/term"
)

// SerialDialer is the real Dialer, grounded on the teacher's
// src/serial_port.go use of github.com/pkg/term to open and configure
// a tty at a fixed baud rate.
type SerialDialer struct{}

// Open opens name at baud and puts it in raw mode, matching the
// teacher's OpenSerialPort.
func (SerialDialer) Open(name string, baud int) (Port, error) {
	t, err := term.Open(name, term.Speed(baud), term.RawMode)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Discover enumerates /dev for candidate microcontroller endpoints.
func (SerialDialer) Discover() ([]string, error) {
	return defaultDiscover()
}
