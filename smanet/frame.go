package smanet

import (
	"encoding/binary"
	"fmt"

	"github.com/juju/errors"
	"github.com/temoto/sunbeam/crc"
	"github.com/temoto/sunbeam/helpers"
)

type DeviceID [2]byte

func (id DeviceID) String() string { return fmt.Sprintf("%02x%02x", id[0], id[1]) }

// Frame is decoded (unescaped) frame, delimiters and crc included.
type Frame []byte

type ChecksumError struct {
	Received uint16
	Actual   uint16
}

func (self *ChecksumError) Error() string {
	return fmt.Sprintf("frame checksum received=%04x actual=%04x", self.Received, self.Actual)
}

func IsChecksum(err error) bool {
	_, ok := errors.Cause(err).(*ChecksumError)
	return ok
}

// Encode makes transmittable frame from template.
// Template must be delimited and escaped, with 2 byte crc slot before trailing delimiter.
// If id is not nil, it is written at DeviceIDOffset.
// Malformed template is code error and panics.
func Encode(template []byte, id *DeviceID) []byte {
	mustTemplate(template)
	logical := Unescape(template[1 : len(template)-TrailerLength])
	if id != nil {
		// logical excludes leading delimiter
		copy(logical[DeviceIDOffset-1:], id[:])
	}
	var crcbs [2]byte
	binary.LittleEndian.PutUint16(crcbs[:], crc.CRC16_X25(logical))

	w := make([]byte, 0, len(template)+4)
	w = append(w, Delimiter)
	w = AppendEscape(w, logical)
	w = AppendEscape(w, crcbs[:])
	w = append(w, Delimiter)
	return w
}

func mustTemplate(t []byte) {
	if len(t) < 1+TrailerLength || t[0] != Delimiter || t[len(t)-1] != Delimiter {
		panic(fmt.Sprintf("code error smanet template=%x must be delimited", t))
	}
	if len(t) < DeviceIDOffset+2+TrailerLength {
		panic(fmt.Sprintf("code error smanet template=%x too short", t))
	}
}

// Verify checks crc, returns *ChecksumError on mismatch.
func (self Frame) Verify() error {
	if len(self) < 1+TrailerLength {
		return errors.NotValidf("frame=%x length=%d", []byte(self), len(self))
	}
	n := len(self)
	received := binary.LittleEndian.Uint16(self[n-3 : n-1])
	actual := crc.CRC16_X25(self[1 : n-3])
	if received != actual {
		return &ChecksumError{Received: received, Actual: actual}
	}
	return nil
}

// Payload strips fixed header and trailer. Nil if frame is too short.
func (self Frame) Payload() []byte {
	if len(self) < HeaderLength+TrailerLength {
		return nil
	}
	return self[HeaderLength : len(self)-TrailerLength]
}

// RemainingLines is the packet counter, 0 if frame is too short.
func (self Frame) RemainingLines() uint8 {
	if len(self) <= OffsetCounter+TrailerLength {
		return 0
	}
	return self[OffsetCounter]
}

func (self Frame) Command() byte {
	if len(self) <= OffsetCommand+TrailerLength {
		return 0
	}
	return self[OffsetCommand]
}

// Source returns device id from response frame.
func (self Frame) Source() (DeviceID, bool) {
	var id DeviceID
	if len(self) < ResponseDeviceIDOffset+2+TrailerLength {
		return id, false
	}
	copy(id[:], self[ResponseDeviceIDOffset:])
	return id, true
}

func (self Frame) Hex() string { return helpers.HexSpaced(self, 4) }

func (self Frame) String() string {
	if len(self) <= OffsetCommand+TrailerLength {
		return fmt.Sprintf("frame(%d)=%x", len(self), []byte(self))
	}
	return fmt.Sprintf("frame(%d) cmd=%02x ctl=%02x cnt=%d data=%x",
		len(self), self.Command(), self[OffsetControl], self.RemainingLines(), self.Payload())
}
