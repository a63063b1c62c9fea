package smanet

import (
	"github.com/juju/errors"
)

// ReadFunc returns next raw chunk. Empty chunk with nil error means read timeout.
type ReadFunc func() ([]byte, error)

// Decoder assembles one frame from raw chunks. Zero value is ready to use.
type Decoder struct {
	buf     []byte
	started bool
	done    bool
	escape  bool
	prev01  bool // last appended byte is unescaped 0x01
}

func (self *Decoder) Reset() {
	self.buf = self.buf[:0]
	self.started = false
	self.done = false
	self.escape = false
	self.prev01 = false
}

func (self *Decoder) Done() bool { return self.done }

// Feed scans protocol bytes (status prefix already removed).
// Returns number of bytes consumed; bytes after closing delimiter are left.
func (self *Decoder) Feed(b []byte) int {
	for i, x := range b {
		if self.done {
			return i
		}
		if !self.started {
			if x == Delimiter {
				self.started = true
				self.buf = append(self.buf[:0], Delimiter)
			}
			continue
		}

		if self.prev01 && x == glitchSecond {
			self.buf = self.buf[:len(self.buf)-1]
			self.prev01 = false
			continue
		}
		self.prev01 = false

		if self.escape {
			self.buf = append(self.buf, unescapeByte(x))
			self.escape = false
			continue
		}
		switch x {
		case EscapeByte:
			self.escape = true
		case Delimiter:
			if len(self.buf) == 1 {
				// back to back delimiters, previous was closing flag of something else
				continue
			}
			self.buf = append(self.buf, Delimiter)
			self.done = true
		default:
			self.buf = append(self.buf, x)
			self.prev01 = x == glitchFirst
		}
	}
	return len(b)
}

// Frame returns assembled frame copy and crc verification result.
func (self *Decoder) Frame() (Frame, error) {
	if !self.done {
		return nil, errors.NotValidf("frame incomplete")
	}
	f := make(Frame, len(self.buf))
	copy(f, self.buf)
	return f, f.Verify()
}

// Decode reads chunks until complete frame or maxAttempts chunks consumed.
// Each chunk starts with ChunkStatusLength status bytes which are skipped.
// Checksum mismatch returns frame together with *ChecksumError.
func Decode(read ReadFunc, maxAttempts int) (Frame, error) {
	var d Decoder
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		chunk, err := read()
		if err != nil {
			return nil, errors.Annotatef(err, "smanet decode attempt=%d", attempt)
		}
		if len(chunk) <= ChunkStatusLength {
			continue
		}
		d.Feed(chunk[ChunkStatusLength:])
		if d.Done() {
			return d.Frame()
		}
	}
	return nil, errors.Timeoutf("smanet decode incomplete frame after attempts=%d", maxAttempts)
}
