// Package usb is the byte pipe under the protocol: bulk write, bulk read
// with timeout, vendor control transfer. Device discovery is not here,
// device path comes from config.
package usb

import (
	"time"

	"github.com/juju/errors"
)

type Transport interface {
	Reset() error
	Control(requestType, request uint8, value, index uint16, data []byte) (int, error)
	Write(endpoint uint8, data []byte) (int, error)
	// Read returns empty slice and nil error on timeout.
	Read(endpoint uint8, max int, timeout time.Duration) ([]byte, error)
	Close() error
}

// Vendor request used to enable data mode on the bridge chip.
const (
	RequestTypeVendorOut uint8 = 0x40
	RequestSetFeature    uint8 = 0x03

	// 19200 baud line setting expected by the inverter link.
	DefaultFeatureValue uint16 = 0x4138
)

const (
	DefaultEndpointOut uint8 = 0x02
	DefaultEndpointIn  uint8 = 0x81
	DefaultReadMax           = 64
)

var ErrClosed = errors.New("usb transport closed")
