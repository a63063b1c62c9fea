package usb

// Public API to easy create device stubs to test your code.
import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"
)

// Modem status prefix the bridge chip puts in front of every read.
var MockStatus = []byte{0x01, 0x60}

type MockHandler func(endpoint uint8, data []byte) [][]byte

type MockCall struct {
	Write []byte // nil matches any write
	Reads [][]byte
}

type MockControl struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
}

// Mock Transport for tests.
// Device replies are either scripted with Expect or computed by Handler.
// Read with empty queue is immediate timeout.
type Mock struct {
	t  testing.TB
	mu sync.Mutex

	handler    MockHandler
	expects    []MockCall
	index      int
	reads      [][]byte
	writes     [][]byte
	controls   []MockControl
	zeroWrites int
	resets     int
	closed     bool

	ControlErr error
	ResetErr   error
	ReadErr    error
}

var _ Transport = &Mock{}

func NewMock(t testing.TB) *Mock {
	return &Mock{
		t:       t,
		expects: make([]MockCall, 0, 16),
	}
}

// NewLoopback returns Mock which reads back everything written, split into chunks of n bytes.
func NewLoopback(t testing.TB, n int) *Mock {
	m := NewMock(t)
	m.SetHandler(func(_ uint8, data []byte) [][]byte { return Chunks(data, n) })
	return m
}

// Chunks splits wire bytes like bridge chip does: max n bytes of payload per read, status prefix each.
func Chunks(wire []byte, n int) [][]byte {
	if n <= 0 {
		n = len(wire)
	}
	cs := make([][]byte, 0, len(wire)/n+1)
	for len(wire) > 0 {
		k := n
		if k > len(wire) {
			k = len(wire)
		}
		c := make([]byte, 0, len(MockStatus)+k)
		c = append(c, MockStatus...)
		c = append(c, wire[:k]...)
		cs = append(cs, c)
		wire = wire[k:]
	}
	return cs
}

func (self *Mock) SetHandler(h MockHandler) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.handler = h
}

// Expect next write to equal w (nil = any), then queue reads.
func (self *Mock) Expect(w []byte, reads ...[]byte) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.expects = append(self.expects, MockCall{Write: w, Reads: reads})
}

func (self *Mock) PushRead(chunks ...[]byte) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.reads = append(self.reads, chunks...)
}

// FailWrites makes next n writes return 0 bytes written.
func (self *Mock) FailWrites(n int) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.zeroWrites = n
}

func (self *Mock) Writes() [][]byte {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([][]byte(nil), self.writes...)
}

func (self *Mock) Controls() []MockControl {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]MockControl(nil), self.controls...)
}

func (self *Mock) Resets() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.resets
}

func (self *Mock) Closed() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.closed
}

// ExpectationsWereMet reports scripted calls not consumed.
func (self *Mock) ExpectationsWereMet() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.index < len(self.expects) {
		return fmt.Errorf("usb mock: %d expected writes not done, next=%x",
			len(self.expects)-self.index, self.expects[self.index].Write)
	}
	return nil
}

func (self *Mock) Reset() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.resets++
	self.reads = nil
	return self.ResetErr
}

func (self *Mock) Control(requestType, request uint8, value, index uint16, data []byte) (int, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.closed {
		return 0, ErrClosed
	}
	self.controls = append(self.controls, MockControl{requestType, request, value, index})
	if self.ControlErr != nil {
		return 0, self.ControlErr
	}
	return len(data), nil
}

func (self *Mock) Write(endpoint uint8, data []byte) (int, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.closed {
		return 0, ErrClosed
	}
	w := append([]byte(nil), data...)
	self.writes = append(self.writes, w)
	if self.zeroWrites > 0 {
		self.zeroWrites--
		return 0, nil
	}

	if self.handler != nil {
		self.reads = append(self.reads, self.handler(endpoint, w)...)
		return len(data), nil
	}
	if self.index >= len(self.expects) {
		self.t.Errorf("usb mock: unexpected write=%x", w)
		return len(data), nil
	}
	call := self.expects[self.index]
	self.index++
	if call.Write != nil && !bytes.Equal(call.Write, w) {
		self.t.Errorf("usb mock: write\nexpected=%x\n  actual=%x", call.Write, w)
	}
	self.reads = append(self.reads, call.Reads...)
	return len(data), nil
}

func (self *Mock) Read(endpoint uint8, max int, timeout time.Duration) ([]byte, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.closed {
		return nil, ErrClosed
	}
	if self.ReadErr != nil {
		return nil, self.ReadErr
	}
	if len(self.reads) == 0 {
		return []byte{}, nil
	}
	c := self.reads[0]
	if len(c) > max {
		// keep the rest for next read, status prefix repeated as real device does
		rest := append(append([]byte(nil), MockStatus...), c[max:]...)
		self.reads[0] = rest
		return c[:max], nil
	}
	self.reads = self.reads[1:]
	return c, nil
}

func (self *Mock) Close() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.closed = true
	return nil
}
