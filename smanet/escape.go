package smanet

// Escape returns copy of b with 0x7e and 0x7d escape coded.
func Escape(b []byte) []byte {
	out := make([]byte, 0, len(b)+len(b)/8+2)
	return AppendEscape(out, b)
}

func AppendEscape(dst, b []byte) []byte {
	for _, x := range b {
		switch x {
		case Delimiter:
			dst = append(dst, EscapeByte, escapedDelimiter)
		case EscapeByte:
			dst = append(dst, EscapeByte, escapedEscape)
		default:
			dst = append(dst, x)
		}
	}
	return dst
}

// Unescape undoes Escape. Trailing lone 0x7d is dropped.
func Unescape(b []byte) []byte {
	out := make([]byte, 0, len(b))
	esc := false
	for _, x := range b {
		if esc {
			out = append(out, unescapeByte(x))
			esc = false
			continue
		}
		if x == EscapeByte {
			esc = true
			continue
		}
		out = append(out, x)
	}
	return out
}

func unescapeByte(x byte) byte {
	switch x {
	case escapedDelimiter:
		return Delimiter
	case escapedEscape:
		return EscapeByte
	}
	return x ^ EscapeXor
}
