package source

import "testing"

import "github.com/stretchr/testify/assert"

func TestSelectPortPicksFirstKnownDescriptor(t *testing.T) {
	candidates := []candidateInfo{
		{Name: "/dev/ttyS0", Description: "Bluetooth onboard modem"},
		{Name: "/dev/ttyUSB0", Description: "1a86 USB2.0-Serial CH340"},
		{Name: "/dev/ttyACM0", Description: "Arduino Uno"},
	}
	name, err := selectPort(candidates)
	assert.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", name)
}

func TestSelectPortNoMatchErrors(t *testing.T) {
	candidates := []candidateInfo{
		{Name: "/dev/ttyS0", Description: "Bluetooth onboard modem"},
	}
	_, err := selectPort(candidates)
	assert.ErrorIs(t, err, ErrNoDeviceFound)
}

func TestSelectPortEmptyCandidates(t *testing.T) {
	_, err := selectPort(nil)
	assert.ErrorIs(t, err, ErrNoDeviceFound)
}
