// Package hal provides hosted Linux implementations of the bus and pin
// primitives the driver consumes: a spidev-backed SPI bus and sysfs
// GPIO pins.
package hal

import (
	"github.com/platinasystems/gpio"
	"golang.org/x/exp/io/spi"

	"github.com/netdrivers/adin1110"
)

var (
	_ adin1110.SPI = (*SPIDev)(nil)
	_ adin1110.Pin = (*GPIOPin)(nil)
)

// SPIDev is a spidev character device usable as the driver's SPI bus.
type SPIDev struct {
	dev *spi.Device
	// rx sinks the receive half of write-only transfers; spidev always
	// clocks data both ways.
	rx [2048 + 8]byte
}

// OpenSPI opens the spidev device at path, e.g. "/dev/spidev0.0". The
// ADIN1110 talks SPI mode 0 at up to 25 MHz.
func OpenSPI(path string, maxSpeedHz int64) (*SPIDev, error) {
	dev, err := spi.Open(&spi.Devfs{Dev: path, Mode: spi.Mode0, MaxSpeed: maxSpeedHz})
	if err != nil {
		return nil, err
	}
	return &SPIDev{dev: dev}, nil
}

func (s *SPIDev) Transfer(tx, rx []byte) error {
	if rx == nil {
		rx = s.rx[:len(tx)]
	}
	return s.dev.Tx(tx, rx)
}

func (s *SPIDev) Close() error { return s.dev.Close() }

// GPIOPin adapts one GPIO line to the driver's Pin interface.
type GPIOPin struct {
	pin gpio.Pin
}

// OutputPin configures pin as a driven output, initially high, which
// suits the device's active-low reset line.
func OutputPin(pin gpio.Pin) (*GPIOPin, error) {
	pin |= gpio.IsOutputHi
	if err := pin.SetDirection(); err != nil {
		return nil, err
	}
	return &GPIOPin{pin: pin}, nil
}

// InputPin configures pin as an input, which suits the device's
// interrupt line.
func InputPin(pin gpio.Pin) (*GPIOPin, error) {
	pin |= gpio.IsInput
	if err := pin.SetDirection(); err != nil {
		return nil, err
	}
	return &GPIOPin{pin: pin}, nil
}

func (p *GPIOPin) Set(high bool) error { return p.pin.SetValue(high) }

func (p *GPIOPin) Get() (bool, error) { return p.pin.Value() }
