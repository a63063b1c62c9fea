package beam

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/temoto/sunbeam/log2"
	"github.com/temoto/sunbeam/smanet"
	"github.com/temoto/sunbeam/usb"
)

// Helpers for testing beam package

var testPolicy = Policy{
	Settle:       time.Millisecond,
	ReadTimeout:  time.Millisecond,
	ReadAttempts: 16,
	WriteRetries: 3,
	MaxFrames:    16,
}

// stubDevice answers requests like inverter link does.
type stubDevice struct {
	t      testing.TB
	mu     sync.Mutex
	id     smanet.DeviceID
	serial uint32
	chunk  int
	silent bool // no answer to id request
	data   func(req smanet.Frame) []byte
	log    []smanet.Frame
}

type tenv struct {
	t    testing.TB
	ctx  context.Context
	log  *log2.Log
	mock *usb.Mock
	dev  *stubDevice
	opt  Options
}

func testEnv(t testing.TB) *tenv {
	dev := &stubDevice{
		t:      t,
		id:     smanet.DeviceID{0x12, 0x34},
		serial: 2100123456,
		chunk:  7,
	}
	env := &tenv{
		t:    t,
		ctx:  context.Background(),
		log:  log2.NewTest(t, log2.LDebug),
		mock: usb.NewMock(t),
		dev:  dev,
	}
	env.mock.SetHandler(dev.handle)
	env.opt = Options{Serial: dev.serial, Policy: testPolicy, Log: env.log}
	return env
}

func (env *tenv) connect() *Session {
	s, err := Connect(env.ctx, env.mock, env.opt)
	require.NoError(env.t, err)
	return s
}

func (env *tenv) synced() *Session {
	s := env.connect()
	require.Equal(env.t, StateIdentified, s.State())
	require.NoError(env.t, s.SyncOnline(env.ctx))
	return s
}

func (d *stubDevice) requests() []smanet.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]smanet.Frame(nil), d.log...)
}

func (d *stubDevice) handle(_ uint8, wire []byte) [][]byte {
	var dec smanet.Decoder
	dec.Feed(wire)
	req, err := dec.Frame()
	if err != nil {
		d.t.Errorf("stub device request=%x err=%v", wire, err)
		return nil
	}
	d.mu.Lock()
	d.log = append(d.log, req)
	silent, id, serial := d.silent, d.id, d.serial
	d.mu.Unlock()

	var resp []byte
	switch req.Command() {
	case smanet.CmdGetNetStart:
		if silent {
			return nil
		}
		var data [4]byte
		binary.LittleEndian.PutUint32(data[:], serial+smanet.SerialNumberBias)
		resp = respond(d.t, id, 0, smanet.CmdGetNetStart, data[:])
	case smanet.CmdSynOnline:
		return nil
	case smanet.CmdGetData:
		if !bytes.Equal(req[smanet.DeviceIDOffset:smanet.DeviceIDOffset+2], id[:]) {
			d.t.Errorf("stub device request to wrong device %s", req)
			return nil
		}
		if d.data != nil {
			resp = d.data(req)
		}
	default:
		d.t.Errorf("stub device unknown request %s", req)
	}
	if resp == nil {
		return nil
	}
	return usb.Chunks(resp, d.chunk)
}

// respond builds wire response frame.
func respond(t testing.TB, id smanet.DeviceID, counter uint8, cmd byte, data []byte) []byte {
	logical := []byte{0xff, 0x03, 0x40, 0x41, id[0], id[1], 0, 0, smanet.ControlSingle, counter, cmd}
	logical = append(logical, data...)
	wire := smanet.Encode(smanet.NewTemplate(logical), nil)
	if bytes.Contains(wire, []byte{0x01, 0x60}) {
		t.Fatalf("test data error, wire=%x contains glitch pair", wire)
	}
	return wire
}

func float32le(fs ...float32) []byte {
	b := make([]byte, 4*len(fs))
	for i, f := range fs {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

func record(ts int32, v float32) []byte {
	r := make([]byte, 12)
	binary.LittleEndian.PutUint32(r, uint32(ts))
	binary.LittleEndian.PutUint32(r[8:], math.Float32bits(v))
	return r
}
