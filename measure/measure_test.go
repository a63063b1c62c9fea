package measure

import (
	"encoding/binary"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putf(b []byte, offset int, f float32) {
	binary.LittleEndian.PutUint32(b[offset:], math.Float32bits(f))
}

func record(ts int32, v float32) []byte {
	r := make([]byte, RecordLength)
	binary.LittleEndian.PutUint32(r, uint32(ts))
	r[4], r[5], r[6], r[7] = 0xaa, 0xbb, 0xcc, 0xdd
	putf(r, 8, v)
	return r
}

func TestDecodeInstant(t *testing.T) {
	t.Parallel()

	type Case struct {
		name   string
		power  float32
		today  float32
		total  float32
		expect Instant
	}
	cases := []Case{
		{"zero", 0, 0, 0, Instant{}},
		{"truncate", 1234.9, 5.4321, 10000.0004, Instant{PowerW: 1234, TodayKWh: 5.432, TotalKWh: 10000}},
		{"round-up", 1, 0.0005, 2.71828, Instant{PowerW: 1, TodayKWh: 0.001, TotalKWh: 2.718}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			b := make([]byte, InstantLength+3)
			putf(b, 0, c.power)
			putf(b, 4, c.today)
			putf(b, 8, c.total)
			inst, err := DecodeInstant(b)
			require.NoError(t, err)
			assert.Equal(t, c.expect, inst)
		})
	}
}

func TestDecodeInstantShort(t *testing.T) {
	t.Parallel()
	for n := 0; n < InstantLength; n++ {
		_, err := DecodeInstant(make([]byte, n))
		assert.True(t, errors.IsNotValid(err), "length=%d err=%v", n, err)
	}
}

func TestDecodeSeriesOrder(t *testing.T) {
	t.Parallel()
	var buf []byte
	buf = append(buf, record(100, 1)...)
	buf = append(buf, record(50, 2)...)
	buf = append(buf, record(10, 3)...)

	ss, rest, err := DecodeSeries(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, rest)
	assert.Equal(t, []Sample{
		{time.Unix(10, 0), 3},
		{time.Unix(50, 0), 2},
		{time.Unix(100, 0), 1},
	}, ss)
}

func TestDecodeSeriesHeaderAndTail(t *testing.T) {
	t.Parallel()
	buf := []byte{0xde, 0xad, 0xbe, 0xef}
	buf = append(buf, record(1600000000, 0.5)...)
	buf = append(buf, 1, 2, 3, 4, 5)

	ss, rest, err := DecodeSeries(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, rest)
	require.Len(t, ss, 1)
	assert.Equal(t, int64(1600000000), ss[0].Time.Unix())
	assert.Equal(t, 0.5, ss[0].Value)

	_, _, err = DecodeSeries(buf, len(buf)+1)
	assert.True(t, errors.IsNotValid(err))
	_, _, err = DecodeSeries(buf, -1)
	assert.True(t, errors.IsNotValid(err))

	ss, rest, err = DecodeSeries(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, ss)
	assert.Equal(t, 0, rest)
}

func TestDecodeSeriesNegativeTime(t *testing.T) {
	t.Parallel()
	ss, _, err := DecodeSeries(record(-1, 7), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), ss[0].Time.Unix())
}

func TestDecodeSeriesRandomSorted(t *testing.T) {
	t.Parallel()
	rnd := rand.New(rand.NewSource(1))
	n := 50
	var buf []byte
	ts := int32(1700000000)
	for i := 0; i < n; i++ {
		buf = append(buf, record(ts, rnd.Float32())...)
		ts -= int32(rnd.Intn(3600) + 1)
	}
	ss, _, err := DecodeSeries(buf, 0)
	require.NoError(t, err)
	require.Len(t, ss, n)
	for i := 1; i < n; i++ {
		assert.True(t, ss[i-1].Time.Before(ss[i].Time), "i=%d", i)
	}
}

func TestDecodeArbitrary(t *testing.T) {
	t.Parallel()
	rnd := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		b := make([]byte, rnd.Intn(64))
		rnd.Read(b)
		assert.NotPanics(t, func() {
			_, _ = DecodeInstant(b)
			_, _, _ = DecodeSeries(b, rnd.Intn(len(b)+1))
		})
	}
}
