package influx

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/smlship/internal/domain"
)

// Measurement and device tags written for each reading.
const (
	EnergyMeasurement  = "energy"
	VoltageMeasurement = "voltage"
	MeterDevice        = "ISKRA MT-631"
	GatewayDevice      = "adafruit feather 32u4"
)

var tagEscaper = strings.NewReplacer(",", `\,`, "=", `\=`, " ", `\ `)

// Points renders a reading as InfluxDB line protocol, one line per point,
// with second precision timestamps.
func Points(r domain.Reading) []string {
	ts := strconv.FormatInt(r.Timestamp.Unix(), 10)
	return []string{
		EnergyMeasurement + ",device=" + tagEscaper.Replace(MeterDevice) +
			" Wh=" + strconv.FormatInt(int64(math.RoundToEven(r.EnergyWh)), 10) + "i " + ts,
		VoltageMeasurement + ",device=" + tagEscaper.Replace(GatewayDevice) +
			" V=" + strconv.FormatFloat(r.BatteryV, 'f', -1, 64) + " " + ts,
	}
}

// batcher accumulates points until a size or age trigger fires.
type batcher struct {
	points    []string
	maxPoints int
	interval  time.Duration
	lastSend  time.Time
}

func newBatcher(maxPoints int, interval time.Duration) *batcher {
	return &batcher{
		maxPoints: maxPoints,
		interval:  interval,
		lastSend:  time.Now(),
	}
}

// Add appends points and reports whether the batch should be sent.
func (b *batcher) Add(points ...string) bool {
	b.points = append(b.points, points...)
	if b.maxPoints > 0 && len(b.points) >= b.maxPoints {
		return true
	}
	return b.interval > 0 && time.Since(b.lastSend) >= b.interval
}

// Body returns the pending points as a request body.
func (b *batcher) Body() string {
	return strings.Join(b.points, "\n") + "\n"
}

// Len returns the number of pending points.
func (b *batcher) Len() int {
	return len(b.points)
}

// Reset clears the batch and updates the last send time.
func (b *batcher) Reset() {
	b.points = b.points[:0]
	b.lastSend = time.Now()
}
