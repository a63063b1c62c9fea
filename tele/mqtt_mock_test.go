package tele

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
)

type mockMsg struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

type mqttMock struct {
	mu         sync.Mutex
	opt        *mqtt.ClientOptions
	pub        chan mockMsg
	connected  bool
	connectErr error
	connects   int
	publishErr error
}

func newMqttMock() *mqttMock {
	return &mqttMock{pub: make(chan mockMsg, 64)}
}

func (self *mqttMock) new(opt *mqtt.ClientOptions) mqtt.Client {
	self.opt = opt
	return self
}

func (self *mqttMock) Disconnect(uint) {
	self.mu.Lock()
	self.connected = false
	self.mu.Unlock()
}
func (self *mqttMock) IsConnected() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.connected
}
func (self *mqttMock) IsConnectionOpen() bool { return self.IsConnected() }

func (self *mqttMock) Connect() mqtt.Token {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.connects++
	if self.connectErr != nil {
		return mockToken{self.connectErr}
	}
	self.connected = true
	return mockToken{nil}
}

func (self *mqttMock) Publish(topic string, qos byte, retain bool, payload interface{}) mqtt.Token {
	self.mu.Lock()
	err := self.publishErr
	self.mu.Unlock()
	if err != nil {
		return mockToken{err}
	}
	self.pub <- mockMsg{topic, qos, retain, payload.([]byte)}
	return mockToken{nil}
}

func (self *mqttMock) Subscribe(string, byte, mqtt.MessageHandler) mqtt.Token {
	panic("not implemented")
}
func (self *mqttMock) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	panic("not implemented")
}
func (self *mqttMock) Unsubscribe(...string) mqtt.Token        { panic("not implemented") }
func (self *mqttMock) AddRoute(string, mqtt.MessageHandler)    { panic("not implemented") }
func (self *mqttMock) OptionsReader() mqtt.ClientOptionsReader { panic("not implemented") }

type mockToken struct{ error }

func (tok mockToken) Error() error                   { return tok.error }
func (tok mockToken) Wait() bool                     { return !errors.IsTimeout(tok.error) }
func (tok mockToken) WaitTimeout(time.Duration) bool { return !errors.IsTimeout(tok.error) }
