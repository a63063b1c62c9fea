package smanet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/temoto/sunbeam/helpers"
)

func TestEscape(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		logical string
		escaped string
	}{
		{"empty", "", ""},
		{"plain", "0102ff", "0102ff"},
		{"delimiter", "7e", "7d5e"},
		{"escape", "7d", "7d5d"},
		{"mixed", "017e027d03", "017d5e027d5d03"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			logical := helpers.MustHex(c.logical)
			escaped := helpers.MustHex(c.escaped)
			assert.Equal(t, c.escaped, hexs(Escape(logical)))
			assert.Equal(t, c.logical, hexs(Unescape(escaped)))
		})
	}
}

func TestUnescapeGeneric(t *testing.T) {
	t.Parallel()
	// other escaped values are xor 0x20
	assert.Equal(t, "01", hexs(Unescape(helpers.MustHex("7d21"))))
	// dangling escape is dropped
	assert.Equal(t, "aa", hexs(Unescape(helpers.MustHex("aa7d"))))
}

func TestEscapeSensitiveBytes(t *testing.T) {
	t.Parallel()
	in := []byte{Delimiter, EscapeByte}
	assert.Equal(t, []byte{EscapeByte, Delimiter ^ EscapeXor, EscapeByte, EscapeByte ^ EscapeXor}, Escape(in))
	assert.Equal(t, in, Unescape(Escape(in)))
}
