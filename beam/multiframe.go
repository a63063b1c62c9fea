package beam

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/sunbeam/measure"
	"github.com/temoto/sunbeam/smanet"
)

type Result struct {
	Data           []byte // payloads in arrival order
	Frames         int
	Partial        bool
	ChecksumErrors []*smanet.ChecksumError
}

func (self *Result) add(f smanet.Frame, err error) error {
	if err != nil {
		ce, ok := errors.Cause(err).(*smanet.ChecksumError)
		if !ok {
			return err
		}
		self.ChecksumErrors = append(self.ChecksumErrors, ce)
	}
	self.Frames++
	self.Data = append(self.Data, f.Payload()...)
	return nil
}

// ReadAll syncs, sends initial template and keeps requesting continuation
// while device reports remaining lines.
// Zero fields of p are taken from session policy.
// When MaxFrames or Deadline is exceeded, collected data is returned
// with Partial=true and ErrPartialMultiFrameRead.
// Other errors also return collected data with Partial=true.
func (self *Session) ReadAll(ctx context.Context, initial []byte, p Policy) (Result, error) {
	if !self.acquire() {
		return Result{}, ErrBusy
	}
	defer self.release()
	return self.readAll(ctx, initial, p.Merge(self.opt.Policy))
}

func (self *Session) readAll(ctx context.Context, initial []byte, p Policy) (Result, error) {
	var r Result
	if err := self.syncOnline(ctx, p); err != nil {
		return r, err
	}
	start := time.Now()
	f, err := self.exchange(ctx, initial, p)
	if err = r.add(f, err); err != nil {
		return r, err
	}
	cmd, remaining := f.Command(), f.RemainingLines()

	for remaining != 0 {
		if r.Frames >= p.MaxFrames || (p.Deadline > 0 && time.Since(start) >= p.Deadline) {
			r.Partial = true
			self.Log.Errorf("%s multi-frame guard frames=%d remaining=%d elapsed=%v",
				modName, r.Frames, remaining, time.Since(start))
			return r, errors.Annotatef(ErrPartialMultiFrameRead, "frames=%d remaining=%d", r.Frames, remaining)
		}
		f, err = self.exchange(ctx, smanet.Continue(cmd, remaining), p)
		if err = r.add(f, err); err != nil {
			r.Partial = true
			return r, errors.Annotatef(err, "multi-frame frames=%d remaining=%d", r.Frames, remaining)
		}
		remaining = f.RemainingLines()
	}
	return r, nil
}

// Instant reads current power and energy counters.
// Checksum mismatch is returned together with decoded values.
func (self *Session) Instant(ctx context.Context) (measure.Instant, error) {
	if !self.acquire() {
		return measure.Instant{}, ErrBusy
	}
	defer self.release()

	p := self.opt.Policy
	if err := self.syncOnline(ctx, p); err != nil {
		return measure.Instant{}, err
	}
	f, err := self.exchange(ctx, smanet.GetInstant(), p)
	if err != nil && !smanet.IsChecksum(err) {
		return measure.Instant{}, err
	}
	inst, derr := measure.DecodeInstant(f.Payload())
	if derr != nil {
		return inst, errors.Annotatef(derr, "response %s", f)
	}
	return inst, err
}

// History reads records in [from, to], oldest first.
// On partial read, samples decoded so far are returned with the error.
func (self *Session) History(ctx context.Context, kind smanet.HistoryKind, from, to time.Time) ([]measure.Sample, error) {
	if kind != smanet.HistoryDay && kind != smanet.HistoryMonth {
		return nil, errors.NotValidf("history kind=%s", kind)
	}
	r, err := self.ReadAll(ctx, smanet.GetHistory(kind, from, to), Policy{})
	if err != nil && !r.Partial {
		return nil, err
	}
	ss, rest, derr := measure.DecodeSeries(r.Data, measure.SeriesHeaderAt)
	if derr != nil {
		return nil, errors.Trace(derr)
	}
	if rest != 0 {
		self.Log.Debugf("%s history kind=%s trailing bytes=%d ignored", modName, kind, rest)
	}
	if err == nil && len(r.ChecksumErrors) != 0 {
		err = r.ChecksumErrors[0]
	}
	return ss, err
}
