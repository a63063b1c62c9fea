// Package beam talks to Sunny Beam device: handshake, keep-alive sync,
// request/response exchange and multi-frame reads.
// Session is owned by one goroutine; concurrent exchange attempts fail with ErrBusy.
package beam

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/atomic_clock"
	"github.com/temoto/sunbeam/log2"
	"github.com/temoto/sunbeam/smanet"
	"github.com/temoto/sunbeam/usb"
)

const modName string = "beam"

type Options struct {
	Serial       uint32
	EndpointOut  uint8
	EndpointIn   uint8
	ReadMax      int
	ControlValue uint16
	Policy       Policy
	Log          *log2.Log
}

func (o Options) withDefaults() Options {
	if o.EndpointOut == 0 {
		o.EndpointOut = usb.DefaultEndpointOut
	}
	if o.EndpointIn == 0 {
		o.EndpointIn = usb.DefaultEndpointIn
	}
	if o.ReadMax == 0 {
		o.ReadMax = usb.DefaultReadMax
	}
	if o.ControlValue == 0 {
		o.ControlValue = usb.DefaultFeatureValue
	}
	o.Policy = o.Policy.Merge(DefaultPolicy())
	return o
}

type Stat struct {
	Request   uint32
	Error     uint32
	Timeout   uint32
	Checksum  uint32
	Handshake uint32
}

type Session struct {
	Log  *log2.Log
	opt  Options
	tr   usb.Transport
	busy uint32

	lk       sync.Mutex
	state    State
	id       smanet.DeviceID
	lastSync atomic_clock.Clock
	stat     Stat
}

// Connect runs handshake on transport.
// Control transfer failure is ErrDeviceUnavailable, transport is left open for caller to close.
// Device not answering id request is not an error: session stays Connected
// and data requests fail with ErrNotIdentified until Reconnect.
func Connect(ctx context.Context, tr usb.Transport, opt Options) (*Session, error) {
	opt = opt.withDefaults()
	self := &Session{
		Log: opt.Log,
		opt: opt,
		tr:  tr,
	}
	if err := self.handshake(ctx); err != nil {
		return nil, err
	}
	return self, nil
}

// Reconnect repeats handshake on the same transport, replacing device id.
func (self *Session) Reconnect(ctx context.Context) error {
	if !self.acquire() {
		return ErrBusy
	}
	defer self.release()
	return self.handshake(ctx)
}

func (self *Session) Close() error {
	self.lk.Lock()
	self.state = StateDisconnected
	self.lk.Unlock()
	return errors.Annotate(self.tr.Close(), modName)
}

func (self *Session) State() State {
	self.lk.Lock()
	defer self.lk.Unlock()
	return self.state
}

func (self *Session) DeviceID() (smanet.DeviceID, bool) {
	self.lk.Lock()
	defer self.lk.Unlock()
	return self.id, self.state >= StateIdentified
}

// LastSync is time since last successful SyncOnline, negative if never.
func (self *Session) LastSync() time.Duration {
	if self.lastSync.IsZero() {
		return -1
	}
	return atomic_clock.Since(&self.lastSync)
}

func (self *Session) Policy() Policy { return self.opt.Policy }

func (self *Session) Stat() Stat {
	return Stat{
		Request:   atomic.LoadUint32(&self.stat.Request),
		Error:     atomic.LoadUint32(&self.stat.Error),
		Timeout:   atomic.LoadUint32(&self.stat.Timeout),
		Checksum:  atomic.LoadUint32(&self.stat.Checksum),
		Handshake: atomic.LoadUint32(&self.stat.Handshake),
	}
}

// SyncOnline sends keep-alive required before data requests.
// Device reply, if any, is discarded.
func (self *Session) SyncOnline(ctx context.Context) error {
	if !self.acquire() {
		return ErrBusy
	}
	defer self.release()
	return self.syncOnline(ctx, self.opt.Policy)
}

func (self *Session) acquire() bool { return atomic.CompareAndSwapUint32(&self.busy, 0, 1) }
func (self *Session) release()      { atomic.StoreUint32(&self.busy, 0) }

func (self *Session) setState(s State) {
	self.lk.Lock()
	prev := self.state
	self.state = s
	self.lk.Unlock()
	if prev != s {
		self.Log.Debugf("%s state %s -> %s", modName, prev, s)
	}
}

func (self *Session) handshake(ctx context.Context) error {
	atomic.AddUint32(&self.stat.Handshake, 1)
	self.setState(StateDisconnected)
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	if err := self.tr.Reset(); err != nil {
		return unavailable(err, "usb reset")
	}
	if _, err := self.tr.Control(usb.RequestTypeVendorOut, usb.RequestSetFeature, self.opt.ControlValue, 0, nil); err != nil {
		return unavailable(err, "usb control set-feature")
	}
	self.setState(StateConnected)

	request := smanet.Encode(smanet.GetDeviceID(self.opt.Serial), nil)
	response, err := self.roundtrip(request, self.opt.Policy)
	if err != nil {
		self.Log.Errorf("%s handshake serial=%d no usable response err=%v", modName, self.opt.Serial, err)
		return nil
	}
	id, ok := response.Source()
	if !ok {
		self.Log.Errorf("%s handshake serial=%d response too short %s", modName, self.opt.Serial, response.Hex())
		return nil
	}
	self.lk.Lock()
	self.id = id
	self.state = StateIdentified
	self.lk.Unlock()
	self.Log.Infof("%s handshake serial=%d device=%s", modName, self.opt.Serial, id)
	return nil
}

func (self *Session) syncOnline(ctx context.Context, p Policy) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	if self.State() < StateIdentified {
		return ErrNotIdentified
	}
	if err := self.write(smanet.Encode(smanet.SynOnline, nil), p.WriteRetries); err != nil {
		self.setState(StateIdentified)
		return errors.Annotate(err, "sync online")
	}
	time.Sleep(p.Settle)
	// one chunk, best effort
	if f, err := smanet.Decode(self.reader(p), 1); err == nil {
		self.Log.Debugf("%s sync online reply %s", modName, f.Hex())
	}
	self.lastSync.SetNow()
	self.setState(StateSynced)
	return nil
}
