package smanet

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/sunbeam/helpers"
)

// Channel selectors in GetData requests.
const (
	ChannelSpot         uint16 = 0x090f
	ChannelHistoryDay   uint16 = 0x1100
	ChannelHistoryMonth uint16 = 0x1200
)

// Fixed keep-alive, required before every data request.
var SynOnline = MustTemplateHex("7e ff 03 40 41 00 00 00 00 80 00 0a 00 00 00 00 2d 2e 7e")

// NewTemplate builds escaped template from logical bytes
// (everything between leading delimiter and crc), crc slot zeroed.
func NewTemplate(logical []byte) []byte {
	t := make([]byte, 0, len(logical)+len(logical)/8+4)
	t = append(t, Delimiter)
	t = AppendEscape(t, logical)
	t = append(t, 0, 0, Delimiter)
	mustTemplate(t)
	return t
}

func MustTemplateHex(s string) []byte {
	b := helpers.MustHex(s)
	mustTemplate(b)
	return b
}

// Logical request header without leading delimiter, addresses zeroed.
func header(control, counter, cmd byte, dataLen int) []byte {
	b := make([]byte, 0, HeaderLength-1+dataLen)
	b = append(b, linkHeader[:]...)
	b = append(b, 0, 0) // source
	b = append(b, 0, 0) // destination, Encode fills device id
	b = append(b, control, counter, cmd)
	return b
}

// GetDeviceID asks device to report its id. Broadcast, sent before id is known.
func GetDeviceID(serial uint32) []byte {
	b := header(ControlGroup, 0, CmdGetNetStart, 4)
	b = appendUint32(b, serial+SerialNumberBias)
	return NewTemplate(b)
}

func GetInstant() []byte {
	b := header(ControlSingle, 0, CmdGetData, 2)
	b = appendUint16(b, ChannelSpot)
	return NewTemplate(b)
}

type HistoryKind uint8

const (
	HistoryInvalid HistoryKind = iota
	HistoryDay                 // power samples of one day
	HistoryMonth               // daily energy of one month
)

func (k HistoryKind) String() string {
	switch k {
	case HistoryDay:
		return "day"
	case HistoryMonth:
		return "month"
	}
	return fmt.Sprintf("HistoryKind(%d)", uint8(k))
}

func ParseHistoryKind(s string) (HistoryKind, error) {
	switch s {
	case "day":
		return HistoryDay, nil
	case "month":
		return HistoryMonth, nil
	}
	return HistoryInvalid, errors.NotValidf("history kind=%s", s)
}

func (k HistoryKind) channel() uint16 {
	switch k {
	case HistoryDay:
		return ChannelHistoryDay
	case HistoryMonth:
		return ChannelHistoryMonth
	}
	panic(fmt.Sprintf("code error history kind=%d", uint8(k)))
}

// GetHistory requests records in [from, to]. Response spans multiple frames.
func GetHistory(kind HistoryKind, from, to time.Time) []byte {
	b := header(ControlSingle, 0, CmdGetData, 10)
	b = appendUint16(b, kind.channel())
	b = appendUint32(b, uint32(int32(from.Unix())))
	b = appendUint32(b, uint32(int32(to.Unix())))
	return NewTemplate(b)
}

// Continue asks for next frame of multi-frame response.
func Continue(cmd byte, remaining uint8) []byte {
	b := header(ControlSingle, remaining, cmd, 0)
	return NewTemplate(b)
}

func appendUint16(b []byte, v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(b, buf[:]...)
}

func appendUint32(b []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(b, buf[:]...)
}
