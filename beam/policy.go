package beam

import "time"

const (
	DefaultSettle       = 100 * time.Millisecond
	DefaultReadTimeout  = 500 * time.Millisecond
	DefaultReadAttempts = 10
	DefaultWriteRetries = 3
	DefaultMaxFrames    = 64
)

// Policy bounds one exchange and one multi-frame read.
// Zero fields take values from session policy, then defaults.
type Policy struct {
	Settle       time.Duration // pause after write before first read
	ReadTimeout  time.Duration // per chunk
	ReadAttempts int           // chunks per frame
	WriteRetries int           // extra writes after zero-byte write
	MaxFrames    int           // frames per multi-frame read
	Deadline     time.Duration // whole multi-frame read, 0 = no limit
}

func DefaultPolicy() Policy {
	return Policy{
		Settle:       DefaultSettle,
		ReadTimeout:  DefaultReadTimeout,
		ReadAttempts: DefaultReadAttempts,
		WriteRetries: DefaultWriteRetries,
		MaxFrames:    DefaultMaxFrames,
	}
}

// Merge fills zero fields from base.
func (p Policy) Merge(base Policy) Policy {
	if p.Settle == 0 {
		p.Settle = base.Settle
	}
	if p.ReadTimeout == 0 {
		p.ReadTimeout = base.ReadTimeout
	}
	if p.ReadAttempts == 0 {
		p.ReadAttempts = base.ReadAttempts
	}
	if p.WriteRetries == 0 {
		p.WriteRetries = base.WriteRetries
	}
	if p.MaxFrames == 0 {
		p.MaxFrames = base.MaxFrames
	}
	if p.Deadline == 0 {
		p.Deadline = base.Deadline
	}
	return p
}
