// Package measure decodes inverter payloads into values.
package measure

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/juju/errors"
)

const (
	InstantLength = 12
	RecordLength  = 12

	// Offsets within single frame spot values payload.
	offsetPower    = 0
	offsetToday    = 4
	offsetTotal    = 8
	recordTimeAt   = 0
	recordValueAt  = 8
	SeriesHeaderAt = 0
)

type Instant struct {
	PowerW   int
	TodayKWh float64
	TotalKWh float64
}

func (self Instant) String() string {
	return fmt.Sprintf("power=%dW today=%.3fkWh total=%.3fkWh", self.PowerW, self.TodayKWh, self.TotalKWh)
}

type Sample struct {
	Time  time.Time
	Value float64
}

func (self Sample) String() string {
	return fmt.Sprintf("%s=%g", self.Time.UTC().Format(time.RFC3339), self.Value)
}

func DecodeInstant(payload []byte) (Instant, error) {
	if len(payload) < InstantLength {
		return Instant{}, errors.NotValidf("instant payload=%x length=%d", payload, len(payload))
	}
	return Instant{
		PowerW:   int(float32At(payload, offsetPower)),
		TodayKWh: round3(float32At(payload, offsetToday)),
		TotalKWh: round3(float32At(payload, offsetTotal)),
	}, nil
}

// DecodeSeries splits buf[headerOffset:] into records.
// Device sends newest first, result is oldest first.
// Returns number of trailing bytes that did not make a whole record.
func DecodeSeries(buf []byte, headerOffset int) ([]Sample, int, error) {
	if headerOffset < 0 || headerOffset > len(buf) {
		return nil, 0, errors.NotValidf("series header offset=%d length=%d", headerOffset, len(buf))
	}
	b := buf[headerOffset:]
	n := len(b) / RecordLength
	ss := make([]Sample, n)
	for i := 0; i < n; i++ {
		r := b[i*RecordLength : (i+1)*RecordLength]
		ts := int32(binary.LittleEndian.Uint32(r[recordTimeAt:]))
		ss[n-1-i] = Sample{
			Time:  time.Unix(int64(ts), 0),
			Value: float64(float32At(r, recordValueAt)),
		}
	}
	return ss, len(b) % RecordLength, nil
}

func float32At(b []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[offset:]))
}

func round3(f float32) float64 {
	return math.Round(float64(f)*1000) / 1000
}
