package telemetry

import (
	"context"
	"time"

	"github.com/tomcamp/tomcamp-core/internal/device"
	"github.com/tomcamp/tomcamp-core/internal/infrastructure/influxdb"
	"github.com/tomcamp/tomcamp-core/internal/infrastructure/logging"
)

// PointWriter is the subset of *influxdb.Client the InfluxDB sink uses.
type PointWriter interface {
	WriteDeviceData(deviceID string, data map[string]any, ts time.Time) bool
}

var (
	_ PointWriter = (*influxdb.Client)(nil)
	_ device.Sink = (*InfluxSink)(nil)
)

// InfluxSink writes numeric and boolean fields of each reading to InfluxDB.
type InfluxSink struct {
	w      PointWriter
	logger *logging.Logger
}

// NewInfluxSink creates a sink writing through w.
func NewInfluxSink(w PointWriter, logger *logging.Logger) *InfluxSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &InfluxSink{w: w, logger: logger.With("component", "telemetry.influxdb")}
}

// DataAppended implements device.Sink.
func (s *InfluxSink) DataAppended(_ context.Context, dev *device.Device, point device.DataPoint) {
	if !s.w.WriteDeviceData(dev.DeviceID, point.Data, point.Timestamp) {
		s.logger.Debug("reading not written to influxdb", "device_id", dev.DeviceID)
	}
}
