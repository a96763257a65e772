package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementDeviceData is the measurement device readings are written to.
const MeasurementDeviceData = "device_data"

// Fields extracts the values InfluxDB can store from a reading: numbers
// (as float64) and booleans. Strings, nulls and nested values are skipped.
func Fields(data map[string]any) map[string]any {
	fields := make(map[string]any, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case float64:
			fields[k] = val
		case float32:
			fields[k] = float64(val)
		case int:
			fields[k] = float64(val)
		case int64:
			fields[k] = float64(val)
		case bool:
			fields[k] = val
		}
	}
	return fields
}

// DevicePoint builds the point for one reading, or nil when the reading
// has no storable fields.
func DevicePoint(deviceID string, data map[string]any, ts time.Time) *write.Point {
	fields := Fields(data)
	if len(fields) == 0 {
		return nil
	}
	return write.NewPoint(
		MeasurementDeviceData,
		map[string]string{"device_id": deviceID},
		fields,
		ts,
	)
}

// WriteDeviceData queues one reading. The write is non-blocking; failures
// surface through the SetOnError callback. Reports whether a point was
// queued.
func (c *Client) WriteDeviceData(deviceID string, data map[string]any, ts time.Time) bool {
	if !c.IsConnected() {
		return false
	}
	point := DevicePoint(deviceID, data, ts)
	if point == nil {
		return false
	}
	c.writeAPI.WritePoint(point)

	c.statsMu.Lock()
	c.written++
	c.statsMu.Unlock()
	return true
}
