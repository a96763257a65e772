package telemetry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tomcamp/tomcamp-core/internal/device"
	"github.com/tomcamp/tomcamp-core/internal/infrastructure/logging"
	"github.com/tomcamp/tomcamp-core/internal/infrastructure/mqtt"
)

// Publisher is the subset of *mqtt.Client the MQTT sink uses.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

var (
	_ Publisher   = (*mqtt.Client)(nil)
	_ device.Sink = (*MQTTSink)(nil)
)

// dataMessage is the JSON published for each reading.
type dataMessage struct {
	ID        string         `json:"id"`
	DeviceID  string         `json:"device_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// mqttSinkBuffer bounds readings waiting for the broker.
const mqttSinkBuffer = 256

type outbound struct {
	topic   string
	payload []byte
}

// MQTTSink publishes readings to tomcamp/devices/{device_id}/data. Publishing
// happens on a background goroutine, so a slow broker at QoS 1 or 2 never
// holds up the append request. Readings are dropped (and logged) when the
// buffer is full.
type MQTTSink struct {
	pub    Publisher
	qos    byte
	logger *logging.Logger

	queue chan outbound
	done  chan struct{}

	// mu guards closed and the send on queue against Close.
	mu     sync.RWMutex
	closed bool
}

// NewMQTTSink creates a sink publishing through pub at qos. Close stops it.
func NewMQTTSink(pub Publisher, qos byte, logger *logging.Logger) *MQTTSink {
	if logger == nil {
		logger = logging.Default()
	}
	s := &MQTTSink{
		pub:    pub,
		qos:    qos,
		logger: logger.With("component", "telemetry.mqtt"),
		queue:  make(chan outbound, mqttSinkBuffer),
		done:   make(chan struct{}),
	}
	go s.publishLoop()
	return s
}

// DataAppended implements device.Sink. It encodes the reading and queues it
// without blocking.
func (s *MQTTSink) DataAppended(_ context.Context, dev *device.Device, point device.DataPoint) {
	payload, err := json.Marshal(dataMessage{
		ID:        dev.ID,
		DeviceID:  dev.DeviceID,
		Timestamp: point.Timestamp,
		Data:      point.Data,
	})
	if err != nil {
		s.logger.Error("encoding device data", "device_id", dev.DeviceID, "error", err)
		return
	}
	msg := outbound{topic: mqtt.Topics{}.DeviceData(dev.DeviceID), payload: payload}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- msg:
	default:
		s.logger.Warn("mqtt publish queue full, reading dropped", "device_id", dev.DeviceID)
	}
}

// Close stops accepting readings and waits for queued ones to be published.
func (s *MQTTSink) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *MQTTSink) publishLoop() {
	defer close(s.done)
	for msg := range s.queue {
		if err := s.pub.Publish(msg.topic, msg.payload, s.qos, false); err != nil {
			s.logger.Warn("publishing device data", "topic", msg.topic, "error", err)
		}
	}
}
