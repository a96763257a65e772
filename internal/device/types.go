package device

import (
	"context"
	"time"

	"github.com/tomcamp/tomcamp-core/internal/store"
)

// Device is a registered IoT device. APIKey is its only credential and is
// never included in list or detail responses.
type Device struct {
	store.Meta
	DeviceID string      `json:"device_id"`
	APIKey   string      `json:"api_key"`
	Notes    string      `json:"notes,omitempty"`
	Data     []DataPoint `json:"data"`
}

// DataPoint is one immutable reading appended by a device.
type DataPoint struct {
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Sink receives every successfully appended data point. Implementations
// must not block for long; failures are theirs to log.
type Sink interface {
	DataAppended(ctx context.Context, dev *Device, point DataPoint)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, dev *Device, point DataPoint)

// DataAppended calls f.
func (f SinkFunc) DataAppended(ctx context.Context, dev *Device, point DataPoint) {
	f(ctx, dev, point)
}
