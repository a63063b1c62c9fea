package usb

import (
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockExpect(t *testing.T) {
	t.Parallel()
	m := NewMock(t)
	m.Expect([]byte{0x7e, 0x01}, []byte{0x01, 0x60, 0xaa}, []byte{0x01, 0x60, 0xbb})
	m.Expect(nil)

	n, err := m.Write(DefaultEndpointOut, []byte{0x7e, 0x01})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	b, err := m.Read(DefaultEndpointIn, DefaultReadMax, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x60, 0xaa}, b)
	b, _ = m.Read(DefaultEndpointIn, DefaultReadMax, time.Millisecond)
	assert.Equal(t, []byte{0x01, 0x60, 0xbb}, b)
	b, err = m.Read(DefaultEndpointIn, DefaultReadMax, time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, b, "empty queue is timeout")

	assert.Error(t, m.ExpectationsWereMet())
	_, _ = m.Write(DefaultEndpointOut, []byte{0xff})
	assert.NoError(t, m.ExpectationsWereMet())
}

func TestMockFailWrites(t *testing.T) {
	t.Parallel()
	m := NewLoopback(t, 0)
	m.FailWrites(1)
	n, err := m.Write(DefaultEndpointOut, []byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	n, _ = m.Write(DefaultEndpointOut, []byte{3})
	assert.Equal(t, 1, n)
	b, _ := m.Read(DefaultEndpointIn, DefaultReadMax, 0)
	assert.Equal(t, []byte{0x01, 0x60, 0x03}, b)
	assert.Len(t, m.Writes(), 2)
}

func TestMockReadMax(t *testing.T) {
	t.Parallel()
	m := NewMock(t)
	m.PushRead([]byte{0x01, 0x60, 1, 2, 3, 4})
	b, _ := m.Read(DefaultEndpointIn, 4, 0)
	assert.Equal(t, []byte{0x01, 0x60, 1, 2}, b)
	b, _ = m.Read(DefaultEndpointIn, 4, 0)
	assert.Equal(t, []byte{0x01, 0x60, 3, 4}, b)
}

func TestChunks(t *testing.T) {
	t.Parallel()
	cs := Chunks([]byte{1, 2, 3, 4, 5}, 2)
	require.Len(t, cs, 3)
	assert.Equal(t, []byte{0x01, 0x60, 5}, cs[2])
	assert.Len(t, Chunks([]byte{1, 2, 3}, 0), 1)
}

func TestMockClosedAndControl(t *testing.T) {
	t.Parallel()
	m := NewMock(t)
	m.ControlErr = errors.New("stall")
	_, err := m.Control(RequestTypeVendorOut, RequestSetFeature, 1, 0, nil)
	assert.Error(t, err)
	assert.Len(t, m.Controls(), 1)
	require.NoError(t, m.Close())
	assert.True(t, m.Closed())
	_, err = m.Write(DefaultEndpointOut, []byte{1})
	assert.Equal(t, ErrClosed, err)
}
