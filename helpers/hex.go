package helpers

import (
	"encoding/hex"
	"strings"
)

func MustHex(s string) []byte {
	b, err := hex.DecodeString(strings.Replace(s, " ", "", -1))
	if err != nil {
		panic(err)
	}
	return b
}

// HexSpaced formats b as hex split into groups of n bytes: "7eff0340 41000000".
func HexSpaced(b []byte, n int) string {
	if n <= 0 {
		n = 4
	}
	var sb strings.Builder
	sb.Grow(len(b)*2 + len(b)/n)
	for i := 0; i < len(b); i += n {
		if i > 0 {
			sb.WriteByte(' ')
		}
		hi := i + n
		if hi > len(b) {
			hi = len(b)
		}
		sb.WriteString(hex.EncodeToString(b[i:hi]))
	}
	return sb.String()
}
