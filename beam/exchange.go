package beam

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/sunbeam/smanet"
)

// Exchange sends template (device id filled in) and reads one response frame.
// Requires SyncOnline done. Timeout and ErrWriteFailed drop state to Identified.
// Checksum mismatch returns frame together with *smanet.ChecksumError.
func (self *Session) Exchange(ctx context.Context, template []byte) (smanet.Frame, error) {
	if !self.acquire() {
		return nil, ErrBusy
	}
	defer self.release()
	return self.exchange(ctx, template, self.opt.Policy)
}

func (self *Session) exchange(ctx context.Context, template []byte, p Policy) (smanet.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	self.lk.Lock()
	state, id := self.state, self.id
	self.lk.Unlock()
	switch {
	case state < StateIdentified:
		return nil, ErrNotIdentified
	case state < StateSynced:
		return nil, ErrNotSynced
	}

	f, err := self.roundtrip(smanet.Encode(template, &id), p)
	if IsRetryable(err) {
		self.setState(StateIdentified)
	}
	return f, err
}

// write, settle, decode
func (self *Session) roundtrip(request []byte, p Policy) (smanet.Frame, error) {
	atomic.AddUint32(&self.stat.Request, 1)
	self.Log.Debugf("%s > %s", modName, smanet.Frame(request).Hex())
	if err := self.write(request, p.WriteRetries); err != nil {
		atomic.AddUint32(&self.stat.Error, 1)
		return nil, err
	}
	time.Sleep(p.Settle)

	f, err := smanet.Decode(self.reader(p), p.ReadAttempts)
	switch {
	case err == nil:
		self.Log.Debugf("%s < %s", modName, f.Hex())
	case smanet.IsChecksum(err):
		atomic.AddUint32(&self.stat.Checksum, 1)
		self.Log.Errorf("%s < %s err=%v", modName, f.Hex(), err)
	case errors.IsTimeout(err):
		atomic.AddUint32(&self.stat.Timeout, 1)
		self.Log.Debugf("%s response err=%v", modName, err)
	default:
		atomic.AddUint32(&self.stat.Error, 1)
		err = errors.Annotate(err, modName)
	}
	return f, err
}

func (self *Session) write(b []byte, retries int) error {
	for attempt := 1; ; attempt++ {
		n, err := self.tr.Write(self.opt.EndpointOut, b)
		if err != nil {
			return errors.Annotatef(err, "%s write", modName)
		}
		if n > 0 {
			return nil
		}
		if attempt > retries {
			return errors.Annotatef(ErrWriteFailed, "attempts=%d", attempt)
		}
		self.Log.Debugf("%s write zero bytes attempt=%d", modName, attempt)
	}
}

func (self *Session) reader(p Policy) smanet.ReadFunc {
	return func() ([]byte, error) {
		return self.tr.Read(self.opt.EndpointIn, self.opt.ReadMax, p.ReadTimeout)
	}
}
