// Package tele publishes measurements as protobuf messages over MQTT.
package tele

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"io/ioutil"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/protobuf/proto"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/sunbeam/helpers"
	"github.com/temoto/sunbeam/log2"
	"github.com/temoto/sunbeam/measure"
)

const (
	defaultNetworkTimeout = 30 * time.Second
	defaultQueueLength    = 32
	defaultTopicPrefix    = "sunbeam"
	logMsgDisabled        = "tele disabled"
)

// Tele contract:
// - Init() fails only with invalid config, network issues are logged
// - Instant/History/Error/Stat never block, messages over queue length are dropped
// - Close() waits for queued messages to be tried once
// - State is published after connect, then retained; broker publishes Disconnected as will
type Tele struct { //nolint:maligned
	enabled bool
	log     *log2.Log
	alive   *alive.Alive
	m       mqtt.Client
	mopt    *mqtt.ClientOptions
	q       chan item
	qos     byte
	timeout time.Duration
	device  string
	sent    uint32
	dropped uint32

	topicState     string
	topicTelemetry string

	// test code sets newClient
	newClient func(*mqtt.ClientOptions) mqtt.Client
}

func (self *Tele) Init(ctx context.Context, log *log2.Log, c Config) error {
	self.enabled = c.Enabled
	self.log = log.Clone(log2.LInfo)
	if c.LogDebug {
		self.log.SetLevel(log2.LDebug)
	}
	if !self.enabled {
		return nil
	}
	if c.MqttBroker == "" {
		return errors.NotValidf("tele.mqtt_broker empty")
	}
	if c.Qos < 0 || c.Qos > 2 {
		return errors.NotValidf("tele.qos=%d", c.Qos)
	}
	self.qos = byte(c.Qos)

	prefix := c.TopicPrefix
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	self.topicState = prefix + "/w/1s"
	self.topicTelemetry = prefix + "/w/1t"
	clientId := c.MqttClientId
	if clientId == "" {
		clientId = prefix
	}

	mqttLog := self.log.Clone(log2.LDebug)
	mqtt.CRITICAL = mqttLog
	mqtt.ERROR = mqttLog
	mqtt.WARN = mqttLog
	if c.MqttLogDebug {
		mqtt.DEBUG = mqttLog
	}

	self.timeout = helpers.IntSecondDefault(c.NetworkTimeoutSec, defaultNetworkTimeout)
	if self.timeout < 1*time.Second {
		self.timeout = 1 * time.Second
	}
	connectTimeout := self.timeout * 3
	keepalive := helpers.IntSecondDefault(c.KeepaliveSec, self.timeout/2)

	tlsconf := new(tls.Config)
	if c.TlsCaFile != "" {
		cabytes, err := ioutil.ReadFile(c.TlsCaFile)
		if err != nil {
			return errors.Annotate(err, "tele.tls_ca_file")
		}
		tlsconf.RootCAs = x509.NewCertPool()
		tlsconf.RootCAs.AppendCertsFromPEM(cabytes)
	}
	credFun := func() (string, string) { return clientId, c.MqttPassword }
	self.mopt = mqtt.NewClientOptions().
		AddBroker(c.MqttBroker).
		SetAutoReconnect(true).
		SetBinaryWill(self.topicState, []byte{byte(State_Disconnected)}, 1, true).
		SetCleanSession(false).
		SetClientID(clientId).
		SetConnectTimeout(connectTimeout).
		SetCredentialsProvider(credFun).
		SetKeepAlive(keepalive).
		SetMaxReconnectInterval(connectTimeout).
		SetOrderMatters(false).
		SetPingTimeout(self.timeout).
		SetTLSConfig(tlsconf).
		SetWriteTimeout(self.timeout)
	if self.newClient == nil { // production path
		self.newClient = mqtt.NewClient
	}
	self.m = self.newClient(self.mopt)

	qlen := c.QueueLength
	if qlen <= 0 {
		qlen = defaultQueueLength
	}
	self.q = make(chan item, qlen)
	self.alive = alive.NewAlive()
	self.alive.Add(1)
	go self.worker()
	self.State(State_Boot)
	return nil
}

// Close stops worker after queue is drained.
func (self *Tele) Close() {
	if !self.enabled {
		return
	}
	self.alive.Stop()
	self.alive.Wait()
	self.m.Disconnect(uint(self.timeout / time.Millisecond))
}

func (self *Tele) SetDevice(id string) { self.device = id }

func (self *Tele) Sent() uint32    { return atomic.LoadUint32(&self.sent) }
func (self *Tele) Dropped() uint32 { return atomic.LoadUint32(&self.dropped) }

// State is retained single byte.
func (self *Tele) State(s State) {
	if !self.enabled {
		self.log.Debugf(logMsgDisabled)
		return
	}
	self.log.Infof("tele.State s=%v", s)
	self.enqueue(item{state: s})
}

func (self *Tele) Instant(inst measure.Instant, checksumMismatch bool) {
	self.push(&Telemetry{Instant: &Telemetry_Instant{
		PowerW:           int32(inst.PowerW),
		TodayKwh:         inst.TodayKWh,
		TotalKwh:         inst.TotalKWh,
		ChecksumMismatch: checksumMismatch,
	}})
}

func (self *Tele) History(kind string, ss []measure.Sample, partial bool) {
	h := &Telemetry_History{
		Kind:    kind,
		Samples: make([]*Telemetry_Sample, len(ss)),
		Partial: partial,
	}
	for i, s := range ss {
		h.Samples[i] = &Telemetry_Sample{Time: s.Time.Unix(), Value: s.Value}
	}
	self.push(&Telemetry{History: h})
}

func (self *Tele) Error(e error, retryable bool) {
	self.push(&Telemetry{Error: &Telemetry_Error{Message: e.Error(), Retryable: retryable}})
}

func (self *Tele) Stat(s *Telemetry_Stat) {
	s.TeleSent = self.Sent()
	s.TeleDropped = self.Dropped()
	self.push(&Telemetry{Stat: s})
}

// queue item, either state or telemetry
type item struct {
	state State
	tm    *Telemetry
}

func (self *Tele) push(tm *Telemetry) {
	if !self.enabled {
		self.log.Debugf(logMsgDisabled)
		return
	}
	tm.Device = self.device
	tm.Time = time.Now().UnixNano()
	self.enqueue(item{tm: tm})
}

func (self *Tele) enqueue(it item) {
	if !self.alive.IsRunning() {
		atomic.AddUint32(&self.dropped, 1)
		return
	}
	select {
	case self.q <- it:
	default:
		atomic.AddUint32(&self.dropped, 1)
		self.log.Errorf("tele queue full, dropped state=%v telemetry=%v", it.state, it.tm)
	}
}

func (self *Tele) worker() {
	defer self.alive.Done()
	stopch := self.alive.StopChan()
	online := self.connect()
	for {
		select {
		case it := <-self.q:
			self.send(it, online)
		case <-stopch:
			for {
				select {
				case it := <-self.q:
					self.send(it, online)
				default:
					return
				}
			}
		}
	}
}

// connect retries until success or stop.
func (self *Tele) connect() bool {
	for self.alive.IsRunning() {
		self.log.Debugf("tele connect broker=%v", self.mopt.Servers)
		if self.tokenWait(self.m.Connect(), "connect") == nil {
			return true
		}
		helpers.SleepAlive(self.alive, time.Second)
	}
	return false
}

func (self *Tele) send(it item, online bool) {
	if !online {
		atomic.AddUint32(&self.dropped, 1)
		return
	}
	if it.tm == nil {
		self.publish(self.topicState, true, []byte{byte(it.state)}, "state")
		return
	}
	payload, err := proto.Marshal(it.tm)
	if err != nil {
		self.log.Errorf("CRITICAL tele marshal telemetry=%s err=%v", it.tm.String(), err)
		return
	}
	if self.publish(self.topicTelemetry, false, payload, "telemetry") {
		atomic.AddUint32(&self.sent, 1)
	} else {
		atomic.AddUint32(&self.dropped, 1)
	}
}

func (self *Tele) publish(topic string, retain bool, payload []byte, tag string) bool {
	t := self.m.Publish(topic, self.qos, retain, payload)
	return self.tokenWait(t, "publish "+tag) == nil
}

func (self *Tele) tokenWait(t mqtt.Token, tag string) error {
	if !t.WaitTimeout(self.timeout) {
		err := errors.Timeoutf("tele mqtt %s", tag)
		self.log.Error(err)
		return err
	}
	if err := t.Error(); err != nil {
		err = errors.Annotatef(err, "tele mqtt %s", tag)
		self.log.Error(err)
		return err
	}
	return nil
}
