package smanet

const (
	Delimiter  byte = 0x7e
	EscapeByte byte = 0x7d
	EscapeXor  byte = 0x20

	escapedDelimiter byte = 0x5e
	escapedEscape    byte = 0x5d

	// USB bridge prepends modem status to every read.
	ChunkStatusLength = 2

	// Device glitch seen in continuation traffic: 0x01 0x60 pair is dropped.
	glitchFirst  byte = 0x01
	glitchSecond byte = 0x60
)

// Offsets in unescaped frame, leading delimiter is [0].
const (
	OffsetSource      = 5
	OffsetDestination = 7
	OffsetControl     = 9
	OffsetCounter     = 10
	OffsetCommand     = 11
	OffsetData        = 12

	HeaderLength  = 12
	TrailerLength = 3 // crc16 + delimiter

	// Request templates carry device id here.
	DeviceIDOffset = OffsetDestination
	// Responses carry device id here.
	ResponseDeviceIDOffset = OffsetSource
)

const (
	ControlGroup  byte = 0x80
	ControlSingle byte = 0x00

	CmdGetNetStart byte = 0x06
	CmdSynOnline   byte = 0x0a
	CmdGetData     byte = 0x0b

	// Device id query embeds serial number plus this bias.
	SerialNumberBias uint32 = 140000000
)

var linkHeader = [4]byte{0xff, 0x03, 0x40, 0x41}
