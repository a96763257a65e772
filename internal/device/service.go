package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomcamp/tomcamp-core/internal/auth"
	"github.com/tomcamp/tomcamp-core/internal/store"
)

// maxAppendAttempts bounds re-reads when concurrent appends race on the
// same device document.
const maxAppendAttempts = 3

// Logger defines the logging interface used by the Service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Service manages devices, their API keys and their data logs.
//
// All public methods are safe for concurrent use.
type Service struct {
	repo   Repository
	logger Logger
	now    func() time.Time

	sinksMu sync.RWMutex
	sinks   []Sink
}

// NewService creates a device service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:   repo,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// AddSink registers a receiver for appended data.
func (s *Service) AddSink(sink Sink) {
	s.sinksMu.Lock()
	defer s.sinksMu.Unlock()
	s.sinks = append(s.sinks, sink)
}

// Register creates a device with a fresh API key. Requires ADMIN.
// The returned device carries the key; it is not shown again except
// through APIKey.
func (s *Service) Register(ctx context.Context, caller *auth.User, deviceID, notes string) (*Device, error) {
	if caller == nil {
		return nil, auth.ErrForbidden
	}
	if err := auth.Authorize(caller.Role, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}
	if err := ValidateNotes(notes); err != nil {
		return nil, err
	}

	key, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	d := &Device{
		DeviceID: deviceID,
		APIKey:   key,
		Notes:    notes,
		Data:     []DataPoint{},
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("device registered", "device_id", deviceID, "id", d.ID, "by", caller.Username)
	return d, nil
}

// Get returns a device by document id.
func (s *Service) Get(ctx context.Context, id string) (*Device, error) {
	return s.repo.Get(ctx, id)
}

// List returns all devices.
func (s *Service) List(ctx context.Context) ([]*Device, error) {
	return s.repo.List(ctx)
}

// Count returns the number of registered devices.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// APIKey returns a device's key. Requires ADMIN.
func (s *Service) APIKey(ctx context.Context, caller *auth.User, id string) (string, error) {
	if caller == nil {
		return "", auth.ErrForbidden
	}
	if err := auth.Authorize(caller.Role, auth.RoleAdmin); err != nil {
		return "", err
	}
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return d.APIKey, nil
}

// Delete removes a device and its data. Requires ADMIN.
func (s *Service) Delete(ctx context.Context, caller *auth.User, id string) error {
	if caller == nil {
		return auth.ErrForbidden
	}
	if err := auth.Authorize(caller.Role, auth.RoleAdmin); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("device deleted", "id", id, "by", caller.Username)
	return nil
}

// Authenticate resolves an API key to its device by exact match.
func (s *Service) Authenticate(ctx context.Context, key string) (*Device, error) {
	if key == "" {
		return nil, ErrInvalidAPIKey
	}
	d, err := s.repo.GetByAPIKey(ctx, key)
	if errors.Is(err, ErrDeviceNotFound) {
		return nil, ErrInvalidAPIKey
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// AppendData records a reading for dev, the device authenticated by API
// key. deviceID is the id the request claims to be from and must match.
//
// Appends commute, so a revision conflict with another append is retried
// from a fresh read.
func (s *Service) AppendData(ctx context.Context, dev *Device, deviceID string, data map[string]any) (DataPoint, error) {
	if dev == nil {
		return DataPoint{}, ErrInvalidAPIKey
	}
	if dev.DeviceID != deviceID {
		return DataPoint{}, ErrMismatchedDevice
	}
	if err := ValidateData(data); err != nil {
		return DataPoint{}, err
	}

	point := DataPoint{Timestamp: s.now().UTC(), Data: data}

	current := dev
	var err error
	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		if attempt > 1 {
			if current, err = s.repo.Get(ctx, dev.ID); err != nil {
				return DataPoint{}, err
			}
		}
		current.Data = append(current.Data, point)
		err = s.repo.Update(ctx, current)
		if err == nil {
			break
		}
		current.Data = current.Data[:len(current.Data)-1]
		if !errors.Is(err, store.ErrRevisionConflict) {
			return DataPoint{}, err
		}
		s.logger.Debug("device append conflict, retrying", "device_id", deviceID, "attempt", attempt)
	}
	if err != nil {
		return DataPoint{}, fmt.Errorf("appending data after %d attempts: %w", maxAppendAttempts, err)
	}

	s.notify(ctx, current, point)
	return point, nil
}

// Data returns a device's readings, oldest first. A positive limit keeps
// only the most recent limit points.
func (s *Service) Data(ctx context.Context, id string, limit int) ([]DataPoint, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	points := d.Data
	if points == nil {
		points = []DataPoint{}
	}
	if limit > 0 && len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points, nil
}

// notify runs sinks inline in the append request. Sinks that talk to a
// network hand off to their own goroutine.
func (s *Service) notify(ctx context.Context, dev *Device, point DataPoint) {
	s.sinksMu.RLock()
	sinks := make([]Sink, len(s.sinks))
	copy(sinks, s.sinks)
	s.sinksMu.RUnlock()

	for _, sink := range sinks {
		sink.DataAppended(ctx, dev, point)
	}
}
