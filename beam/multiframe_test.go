package beam

import (
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/sunbeam/measure"
	"github.com/temoto/sunbeam/smanet"
)

func framePayload(i int) []byte { return []byte{0xa0 + byte(i), byte(i), 0x7e} }

// countdown answers initial request with remaining=n, continuation k with k-1.
func countdown(t testing.TB, env *tenv, n uint8) func(smanet.Frame) []byte {
	return func(req smanet.Frame) []byte {
		remaining := n
		if rl := req.RemainingLines(); rl != 0 {
			remaining = rl - 1
		}
		return respond(t, env.dev.id, remaining, smanet.CmdGetData, framePayload(int(n-remaining)))
	}
}

func TestReadAllTermination(t *testing.T) {
	t.Parallel()
	type Case struct {
		name string
		n    uint8
	}
	cases := []Case{
		{"single", 0},
		{"two", 1},
		{"five", 5},
		{"max-guard-edge", 15},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			env := testEnv(t)
			env.dev.data = countdown(t, env, c.n)
			s := env.connect()
			r, err := s.ReadAll(env.ctx, smanet.GetInstant(), Policy{})
			require.NoError(t, err)
			assert.False(t, r.Partial)
			assert.Equal(t, int(c.n)+1, r.Frames)
			var expect []byte
			for i := 0; i <= int(c.n); i++ {
				expect = append(expect, framePayload(i)...)
			}
			assert.Equal(t, expect, r.Data)
			assert.Empty(t, r.ChecksumErrors)

			reqs := env.dev.requests()
			// id request, sync, initial, continuations
			require.Len(t, reqs, 3+int(c.n))
			assert.Equal(t, smanet.CmdSynOnline, reqs[1].Command())
			for i, req := range reqs[3:] {
				assert.Equal(t, c.n-uint8(i), req.RemainingLines())
				assert.Equal(t, smanet.CmdGetData, req.Command())
			}
		})
	}
}

func TestReadAllGuardFrames(t *testing.T) {
	t.Parallel()
	env := testEnv(t)
	env.dev.data = func(req smanet.Frame) []byte {
		return respond(t, env.dev.id, 5, smanet.CmdGetData, []byte{0x33})
	}
	s := env.connect()
	r, err := s.ReadAll(env.ctx, smanet.GetInstant(), Policy{MaxFrames: 4})
	require.Error(t, err)
	assert.True(t, IsPartial(err))
	assert.False(t, IsRetryable(err))
	assert.True(t, r.Partial)
	assert.Equal(t, 4, r.Frames)
	assert.Equal(t, []byte{0x33, 0x33, 0x33, 0x33}, r.Data)
	assert.Equal(t, StateSynced, s.State())
}

func TestReadAllGuardDeadline(t *testing.T) {
	t.Parallel()
	env := testEnv(t)
	env.dev.data = func(req smanet.Frame) []byte {
		return respond(t, env.dev.id, 1, smanet.CmdGetData, []byte{0x44})
	}
	s := env.connect()
	r, err := s.ReadAll(env.ctx, smanet.GetInstant(), Policy{MaxFrames: 1000, Deadline: time.Nanosecond})
	assert.Equal(t, ErrPartialMultiFrameRead, errors.Cause(err))
	assert.True(t, r.Partial)
	assert.Equal(t, 1, r.Frames)
	assert.Equal(t, []byte{0x44}, r.Data)
}

func TestReadAllTimeoutKeepsData(t *testing.T) {
	t.Parallel()
	env := testEnv(t)
	env.dev.data = func(req smanet.Frame) []byte {
		if req.RemainingLines() != 0 {
			return nil
		}
		return respond(t, env.dev.id, 3, smanet.CmdGetData, []byte{0x55, 0x66})
	}
	s := env.connect()
	r, err := s.ReadAll(env.ctx, smanet.GetInstant(), Policy{})
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.True(t, r.Partial)
	assert.Equal(t, []byte{0x55, 0x66}, r.Data)
	assert.Equal(t, StateIdentified, s.State())
}

func TestReadAllChecksumAccumulated(t *testing.T) {
	t.Parallel()
	env := testEnv(t)
	env.dev.data = func(req smanet.Frame) []byte {
		remaining := uint8(2)
		if rl := req.RemainingLines(); rl != 0 {
			remaining = rl - 1
		}
		w := respond(t, env.dev.id, remaining, smanet.CmdGetData, []byte{0x20, 0x30})
		if remaining == 1 {
			w[smanet.OffsetData+1] ^= 0x02
		}
		return w
	}
	s := env.connect()
	r, err := s.ReadAll(env.ctx, smanet.GetInstant(), Policy{})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Frames)
	require.Len(t, r.ChecksumErrors, 1)
	assert.Equal(t, []byte{0x20, 0x30, 0x20, 0x32, 0x20, 0x30}, r.Data)
}

func TestHistory(t *testing.T) {
	t.Parallel()
	env := testEnv(t)
	from, to := time.Unix(5, 0), time.Unix(200, 0)
	env.dev.data = func(req smanet.Frame) []byte {
		switch req.RemainingLines() {
		case 0:
			p := req.Payload()
			require.Len(t, p, 10)
			assert.Equal(t, []byte{0x00, 0x11, 5, 0, 0, 0, 200, 0, 0, 0}, p)
			data := append(record(100, 1), record(50, 2)...)
			return respond(t, env.dev.id, 1, smanet.CmdGetData, data)
		case 1:
			return respond(t, env.dev.id, 0, smanet.CmdGetData, record(10, 3))
		}
		t.Errorf("unexpected request %s", req)
		return nil
	}
	s := env.connect()
	ss, err := s.History(env.ctx, smanet.HistoryDay, from, to)
	require.NoError(t, err)
	assert.Equal(t, []measure.Sample{
		{Time: time.Unix(10, 0), Value: 3},
		{Time: time.Unix(50, 0), Value: 2},
		{Time: time.Unix(100, 0), Value: 1},
	}, ss)
}

func TestHistoryPartial(t *testing.T) {
	t.Parallel()
	env := testEnv(t)
	env.dev.data = func(req smanet.Frame) []byte {
		return respond(t, env.dev.id, 9, smanet.CmdGetData, record(int32(100-req.RemainingLines()), 4))
	}
	s := env.connect()
	s.opt.Policy.MaxFrames = 2
	ss, err := s.History(env.ctx, smanet.HistoryMonth, time.Unix(0, 0), time.Unix(1000, 0))
	assert.True(t, IsPartial(err))
	require.Len(t, ss, 2)
	assert.Equal(t, int64(91), ss[0].Time.Unix())
	assert.Equal(t, int64(100), ss[1].Time.Unix())
}

func TestHistoryInvalidKind(t *testing.T) {
	t.Parallel()
	env := testEnv(t)
	s := env.connect()
	_, err := s.History(env.ctx, smanet.HistoryInvalid, time.Unix(0, 0), time.Unix(1, 0))
	assert.True(t, errors.IsNotValid(err))
}
