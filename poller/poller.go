// Package poller owns one device session and periodically publishes
// instant values and history. Session is touched only between whole cycles.
package poller

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/sunbeam/beam"
	"github.com/temoto/sunbeam/helpers"
	"github.com/temoto/sunbeam/log2"
	"github.com/temoto/sunbeam/measure"
	"github.com/temoto/sunbeam/smanet"
	"github.com/temoto/sunbeam/tele"
)

const (
	DefaultInterval     = 60 * time.Second
	DefaultReconnectMin = 1 * time.Second
	DefaultReconnectMax = 5 * time.Minute
	// consecutive failed cycles before handshake is repeated
	DefaultReconnectAfter = 3
)

type Session interface {
	Instant(ctx context.Context) (measure.Instant, error)
	History(ctx context.Context, kind smanet.HistoryKind, from, to time.Time) ([]measure.Sample, error)
	Reconnect(ctx context.Context) error
	State() beam.State
	DeviceID() (smanet.DeviceID, bool)
	Stat() beam.Stat
}

type Publisher interface {
	SetDevice(id string)
	State(s tele.State)
	Instant(inst measure.Instant, checksumMismatch bool)
	History(kind string, ss []measure.Sample, partial bool)
	Error(e error, retryable bool)
	Stat(s *tele.Telemetry_Stat)
}

type Config struct {
	Interval        time.Duration
	History         smanet.HistoryKind
	HistoryInterval time.Duration
	HistorySpan     time.Duration
	ReconnectMin    time.Duration
	ReconnectMax    time.Duration
	ReconnectAfter  int
}

type Poller struct {
	Log *log2.Log
	// AfterStep is called after every cycle, used for service watchdog.
	AfterStep func(err error)

	c           Config
	sess        Session
	pub         Publisher
	reconnect   helpers.Backoff
	failures    int
	online      bool
	lastHistory time.Time
	now         func() time.Time
}

func New(log *log2.Log, sess Session, pub Publisher, c Config) *Poller {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.ReconnectMin == 0 {
		c.ReconnectMin = DefaultReconnectMin
	}
	if c.ReconnectMax == 0 {
		c.ReconnectMax = DefaultReconnectMax
	}
	if c.ReconnectMax < c.ReconnectMin {
		c.ReconnectMax = c.ReconnectMin
	}
	if c.ReconnectAfter == 0 {
		c.ReconnectAfter = DefaultReconnectAfter
	}
	self := &Poller{
		Log:  log,
		c:    c,
		sess: sess,
		pub:  pub,
		now:  time.Now,
	}
	self.reconnect = helpers.Backoff{Min: c.ReconnectMin, Max: c.ReconnectMax, K: 2}
	if id, ok := sess.DeviceID(); ok {
		self.pub.SetDevice(id.String())
	}
	return self
}

// Run polls until a is stopped. Caller should a.Add(1) before.
func (self *Poller) Run(a *alive.Alive) {
	defer a.Done()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-a.StopChan():
			cancel()
		case <-ctx.Done():
		}
	}()

	for a.IsRunning() {
		err := self.Step(ctx)
		if self.AfterStep != nil {
			self.AfterStep(err)
		}
		delay := self.c.Interval
		if d := self.reconnect.DelayBefore(); d > delay {
			delay = d
		}
		if !helpers.SleepAlive(a, delay) {
			break
		}
	}
	self.Log.Debugf("poller stopped")
}

// Step is one cycle: handshake if needed, instant values, history when due, stat.
func (self *Poller) Step(ctx context.Context) error {
	defer self.publishStat()

	if err := self.ensureIdentified(ctx); err != nil {
		return err
	}

	inst, err := self.sess.Instant(ctx)
	switch {
	case err == nil:
		self.pub.Instant(inst, false)
	case smanet.IsChecksum(err):
		self.Log.Errorf("poller instant %v err=%v", inst, err)
		self.pub.Instant(inst, true)
	default:
		return self.fail(err, "instant")
	}
	self.succeed()

	if err = self.history(ctx); err != nil {
		return err
	}
	return nil
}

func (self *Poller) ensureIdentified(ctx context.Context) error {
	if self.sess.State() >= beam.StateIdentified && self.failures < self.c.ReconnectAfter {
		return nil
	}
	if d := self.reconnect.DelayBefore(); d > 0 {
		return errors.Errorf("poller reconnect delayed %v", d)
	}
	self.Log.Infof("poller reconnect state=%s failures=%d", self.sess.State(), self.failures)
	err := self.sess.Reconnect(ctx)
	if err == nil && self.sess.State() < beam.StateIdentified {
		err = beam.ErrNotIdentified
	}
	if err != nil {
		self.reconnect.Failure()
		return self.fail(err, "reconnect")
	}
	self.reconnect.Reset()
	self.failures = 0
	if id, ok := self.sess.DeviceID(); ok {
		self.pub.SetDevice(id.String())
	}
	return nil
}

func (self *Poller) history(ctx context.Context) error {
	if self.c.History == smanet.HistoryInvalid {
		return nil
	}
	now := self.now()
	if !self.lastHistory.IsZero() && now.Sub(self.lastHistory) < self.c.HistoryInterval {
		return nil
	}
	span := self.c.HistorySpan
	if span == 0 {
		span = 24 * time.Hour
	}
	ss, err := self.sess.History(ctx, self.c.History, now.Add(-span), now)
	partial := beam.IsPartial(err)
	if err != nil && !partial && !smanet.IsChecksum(err) {
		return self.fail(err, "history")
	}
	if err != nil {
		self.Log.Errorf("poller history kind=%s samples=%d err=%v", self.c.History, len(ss), err)
	}
	self.lastHistory = now
	self.pub.History(self.c.History.String(), ss, partial)
	return nil
}

func (self *Poller) fail(err error, tag string) error {
	err = errors.Annotatef(err, "poller %s", tag)
	self.failures++
	self.Log.Error(err)
	self.pub.Error(err, beam.IsRetryable(err))
	if self.online {
		self.online = false
		self.pub.State(tele.State_DeviceLost)
	}
	return err
}

func (self *Poller) succeed() {
	self.failures = 0
	if !self.online {
		self.online = true
		self.pub.State(tele.State_Online)
	}
}

func (self *Poller) publishStat() {
	s := self.sess.Stat()
	self.pub.Stat(&tele.Telemetry_Stat{
		Request:   s.Request,
		Error:     s.Error,
		Timeout:   s.Timeout,
		Checksum:  s.Checksum,
		Handshake: s.Handshake,
	})
}
