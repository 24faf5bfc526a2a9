package sml

import (
	"fmt"
	"math"
	"time"

	"github.com/bft-labs/smlship/internal/domain"
)

// InstallEpoch is the instant the meter's uptime counter started.
// The device reports no zone; it is pinned to UTC.
var InstallEpoch = time.Date(2021, time.March, 19, 11, 10, 0, 0, time.UTC)

// Field positions in scan order.
const (
	timestampUptimeField = 1
	powerStatusField     = 0
	powerUnitField       = 1
	powerScalerField     = 2
	powerValueField      = 3
)

// ADC scaling of the battery pin: 3.3 V reference, 10 bit, behind a 1:2 divider.
const (
	batteryDivider = 2.0
	batteryVRef    = 3.3
	batteryADCMax  = 1024
)

// BigEndianInt interprets b as a big-endian two's complement integer.
// An empty slice is 0.
func BigEndianInt(b []byte) (int64, error) {
	if len(b) > 8 {
		return 0, fmt.Errorf("integer of %d bytes does not fit in 64 bits", len(b))
	}
	var v int64
	for _, x := range b {
		v = v<<8 | int64(x)
	}
	if n := len(b); n > 0 && n < 8 && b[0]&0x80 != 0 {
		v -= 1 << (8 * n)
	}
	return v, nil
}

// BigEndianUint interprets b as a big-endian unsigned integer.
func BigEndianUint(b []byte) (uint64, error) {
	if len(b) > 8 {
		return 0, fmt.Errorf("integer of %d bytes does not fit in 64 bits", len(b))
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v, nil
}

// HexListToInt concatenates hex byte tokens and parses them as one
// big-endian signed integer.
func HexListToInt(tokens []string) (int64, error) {
	b, err := domain.ParseTokens(tokens)
	if err != nil {
		return 0, err
	}
	return BigEndianInt(b)
}

func fieldValue(frame []byte, fields []domain.Field, pos int) ([]byte, error) {
	if len(fields) <= pos {
		return nil, fmt.Errorf("%w: need field %d, found %d fields", domain.ErrFieldShortfall, pos, len(fields))
	}
	return fields[pos].Value(frame)
}

// Timestamp decodes the uptime field of a timestamp frame into an absolute time.
func Timestamp(frame []byte, fields []domain.Field) (time.Time, error) {
	v, err := fieldValue(frame, fields, timestampUptimeField)
	if err != nil {
		return time.Time{}, err
	}
	secs, err := BigEndianUint(v)
	if err != nil {
		return time.Time{}, err
	}
	if secs > uint64(math.MaxInt64/int64(time.Second)) {
		return time.Time{}, fmt.Errorf("uptime %d s out of range", secs)
	}
	return InstallEpoch.Add(time.Duration(secs) * time.Second), nil
}

// Power decodes the scaler and value fields of a power frame into watt-hours.
func Power(frame []byte, fields []domain.Field) (float64, error) {
	sv, err := fieldValue(frame, fields, powerScalerField)
	if err != nil {
		return 0, err
	}
	mv, err := fieldValue(frame, fields, powerValueField)
	if err != nil {
		return 0, err
	}
	scaler, err := BigEndianInt(sv)
	if err != nil {
		return 0, fmt.Errorf("scaler: %w", err)
	}
	mantissa, err := BigEndianInt(mv)
	if err != nil {
		return 0, fmt.Errorf("value: %w", err)
	}
	return float64(mantissa) * math.Pow10(int(scaler)), nil
}

// PowerUnit returns the raw unit code of a power frame (0x1E is Wh).
func PowerUnit(frame []byte, fields []domain.Field) (byte, error) {
	v, err := fieldValue(frame, fields, powerUnitField)
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("%w: unit field has %d bytes", domain.ErrFieldShortfall, len(v))
	}
	return v[0], nil
}

// PowerStatus returns the raw status word of a power frame.
func PowerStatus(frame []byte, fields []domain.Field) (uint64, error) {
	v, err := fieldValue(frame, fields, powerStatusField)
	if err != nil {
		return 0, err
	}
	return BigEndianUint(v)
}

// BatteryVoltage decodes the little-endian ADC reading of a battery frame.
func BatteryVoltage(frame []byte) (float64, error) {
	if len(frame) != domain.BatteryFrameLen {
		return 0, fmt.Errorf("%w: battery frame has %d bytes, want %d",
			domain.ErrFieldShortfall, len(frame), domain.BatteryFrameLen)
	}
	raw := int16(uint16(frame[1])<<8 | uint16(frame[0]))
	return float64(raw) * batteryDivider * batteryVRef / batteryADCMax, nil
}

// DecodeTriple builds a reading from a timestamp, power and battery frame.
// Errors are *domain.DecodeError naming the failing frame.
func DecodeTriple(ts, power, battery domain.Frame) (domain.Reading, error) {
	t, err := Timestamp(ts.Bytes, Index(ts.Bytes))
	if err != nil {
		return domain.Reading{}, &domain.DecodeError{Role: domain.FrameRoleTimestamp, Err: err}
	}
	wh, err := Power(power.Bytes, Index(power.Bytes))
	if err != nil {
		return domain.Reading{}, &domain.DecodeError{Role: domain.FrameRolePower, Err: err}
	}
	v, err := BatteryVoltage(battery.Bytes)
	if err != nil {
		return domain.Reading{}, &domain.DecodeError{Role: domain.FrameRoleBattery, Err: err}
	}
	return domain.Reading{Timestamp: t, EnergyWh: wh, BatteryV: v}, nil
}
