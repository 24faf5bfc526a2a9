package sml

import (
	"encoding/binary"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/smlship/internal/domain"
)

var (
	timestampTokens = []string{"72", "62", "1", "65", "0", "15", "43", "C1", "74", "77", "7", "1"}
	powerTokens     = []string{"65", "0", "10", "1", "4", "1", "62", "1E", "52", "3", "62", "38", "1", "77", "7", "1"}
	batteryTokens   = []string{"D2", "2"}
)

func TestHexListToInt(t *testing.T) {
	tests := []struct {
		tokens []string
		want   int64
	}{
		{[]string{"38"}, 56},
		{[]string{"3"}, 3},
		{[]string{"FF"}, -1},
		{[]string{"FD"}, -3},
		{[]string{"0", "15", "43", "C1"}, 0x1543C1},
		{[]string{"2", "D2"}, 722},
		{[]string{"80", "0"}, math.MinInt16},
		{[]string{"FF", "FF", "FF", "FF", "FF", "FF", "FF", "FF"}, -1},
		{nil, 0},
	}
	for _, tt := range tests {
		got, err := HexListToInt(tt.tokens)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "tokens %v", tt.tokens)
	}
}

func TestHexListToInt_Errors(t *testing.T) {
	_, err := HexListToInt([]string{"G1"})
	require.ErrorIs(t, err, domain.ErrFraming)

	_, err = HexListToInt([]string{"1", "2", "3", "4", "5", "6", "7", "8", "9"})
	require.Error(t, err)
}

func TestBigEndianInt_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for k := 1; k <= 8; k++ {
		for i := 0; i < 500; i++ {
			v := rng.Int63() - rng.Int63()
			if k < 8 {
				bits := uint(8 * k)
				v = v << (64 - bits) >> (64 - bits) // sign-extend into k bytes
			}
			var buf [8]byte
			binary.BigEndian.PutUint64(buf[:], uint64(v))

			got, err := BigEndianInt(buf[8-k:])
			require.NoError(t, err)
			require.Equal(t, v, got, "k=%d", k)
		}
	}
}

func TestTimestamp(t *testing.T) {
	frame := mustFrame(t, timestampTokens...)
	got, err := Timestamp(frame, Index(frame))
	require.NoError(t, err)
	assert.Equal(t, InstallEpoch.Add(0x1543C1*time.Second), got)
	assert.Equal(t, "2021-04-04T14:16:41Z", got.Format(time.RFC3339))
}

func TestTimestamp_FieldShortfall(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
	}{
		{"one field", []string{"72", "62", "1", "1", "1", "1", "1", "1", "1", "1", "1", "1"}},
		{"no fields", []string{"1", "1", "1", "1", "1", "1", "1", "1", "1", "1", "1", "1"}},
		{"declared length past end", []string{"72", "62", "1", "1", "1", "1", "1", "1", "1", "1", "65", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := mustFrame(t, tt.tokens...)
			_, err := Timestamp(frame, Index(frame))
			require.ErrorIs(t, err, domain.ErrFieldShortfall)
		})
	}
}

func TestPower(t *testing.T) {
	frame := mustFrame(t, powerTokens...)
	fields := Index(frame)

	got, err := Power(frame, fields)
	require.NoError(t, err)
	assert.Equal(t, 56000.0, got)

	unit, err := PowerUnit(frame, fields)
	require.NoError(t, err)
	assert.Equal(t, byte(0x1E), unit)

	status, err := PowerStatus(frame, fields)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x00100104), status)
}

func TestPower_LongFrameNegativeScaler(t *testing.T) {
	// 20-byte frame with a four byte value and scaler -1
	frame := mustFrame(t, "65", "0", "1", "1", "4", "1", "62", "1E", "52", "FF", "55", "0", "1", "86", "A0", "1", "77", "7", "1", "0")
	require.Len(t, frame, domain.PowerFrameLongLen)

	got, err := Power(frame, Index(frame))
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, got, 1e-9)
}

func TestPower_FieldShortfall(t *testing.T) {
	frame := mustFrame(t, "65", "0", "10", "1", "4", "1", "62", "1E", "52", "3", "1", "1", "1", "1", "1", "1")
	_, err := Power(frame, Index(frame))
	require.ErrorIs(t, err, domain.ErrFieldShortfall)
}

func TestBatteryVoltage(t *testing.T) {
	got, err := BatteryVoltage(mustFrame(t, batteryTokens...))
	require.NoError(t, err)
	assert.InDelta(t, 722*2.0*3.3/1024, got, 1e-12)
	assert.InDelta(t, 4.6535, got, 1e-4)

	_, err = BatteryVoltage([]byte{1})
	require.ErrorIs(t, err, domain.ErrFieldShortfall)
}

func TestBatteryVoltage_Monotonic(t *testing.T) {
	prev := math.Inf(-1)
	for raw := math.MinInt16; raw <= math.MaxInt16; raw += 37 {
		u := uint16(int16(raw))
		v, err := BatteryVoltage([]byte{byte(u), byte(u >> 8)})
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, prev, "raw %d", raw)
		prev = v
	}
}

func TestDecodeTriple(t *testing.T) {
	ts := domain.Frame{Bytes: mustFrame(t, timestampTokens...)}
	pw := domain.Frame{Bytes: mustFrame(t, powerTokens...)}
	bt := domain.Frame{Bytes: mustFrame(t, batteryTokens...)}

	first, err := DecodeTriple(ts, pw, bt)
	require.NoError(t, err)
	second, err := DecodeTriple(ts, pw, bt)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, math.Float64bits(first.BatteryV), math.Float64bits(second.BatteryV))
	assert.Equal(t, 56000.0, first.EnergyWh)
}

func TestDecodeTriple_ReportsRole(t *testing.T) {
	ts := domain.Frame{Bytes: mustFrame(t, "1", "1", "1", "1", "1", "1", "1", "1", "1", "1", "1", "1")}
	pw := domain.Frame{Bytes: mustFrame(t, powerTokens...)}
	bt := domain.Frame{Bytes: mustFrame(t, batteryTokens...)}

	_, err := DecodeTriple(ts, pw, bt)
	var de *domain.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.FrameRoleTimestamp, de.Role)
	assert.ErrorIs(t, err, domain.ErrFieldShortfall)
}
