// Package smanet implements the framing layer spoken by Sunny Beam class
// telemetry units over USB: 0x7e delimited frames, 0x7d escape coding,
// little-endian CRC-16/X-25 before the trailing delimiter.
//
// Wire layout of one frame (offsets in unescaped bytes):
//
//	[0]     0x7e
//	[1:5]   ff 03 40 41     link header
//	[5:7]   source address  (device id in responses)
//	[7:9]   destination     (device id in requests)
//	[9]     control
//	[10]    packet counter  (remaining lines in multi-frame responses)
//	[11]    command
//	[12:n-3] data
//	[n-3:n-1] crc16 x25, little-endian
//	[n-1]   0x7e
package smanet
