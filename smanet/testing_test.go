package smanet

import (
	"bytes"
	"encoding/hex"
	"time"
)

// Unescaped 0x01 followed by 0x60 on wire is dropped by decoder.
func hasGlitchPair(wire []byte) bool { return bytes.Contains(wire, []byte{glitchFirst, glitchSecond}) }

func hexs(b []byte) string { return hex.EncodeToString(b) }

func unix(sec int64) time.Time { return time.Unix(sec, 0) }
