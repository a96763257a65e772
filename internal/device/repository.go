package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomcamp/tomcamp-core/internal/store"
)

// Unique device keys.
const (
	keyDeviceID = "device_id"
	keyAPIKey   = "api_key"
)

// Repository defines device persistence.
type Repository interface {
	Create(ctx context.Context, d *Device) error
	Get(ctx context.Context, id string) (*Device, error)
	GetByAPIKey(ctx context.Context, key string) (*Device, error)
	List(ctx context.Context) ([]*Device, error)
	Update(ctx context.Context, d *Device) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// DocumentRepository stores devices in the "devices" collection. Both
// device_id and api_key are unique lookup keys.
type DocumentRepository struct {
	devices *store.Collection[Device, *Device]
}

// NewRepository creates a device repository over db.
func NewRepository(db *sql.DB, opts ...store.Option[Device]) *DocumentRepository {
	opts = append([]store.Option[Device]{
		store.WithUnique(keyDeviceID, func(d *Device) string { return d.DeviceID }),
		store.WithUnique(keyAPIKey, func(d *Device) string { return d.APIKey }),
	}, opts...)
	return &DocumentRepository{devices: store.NewCollection[Device](db, "devices", opts...)}
}

// Create inserts a device.
func (r *DocumentRepository) Create(ctx context.Context, d *Device) error {
	return mapError("creating device", r.devices.Insert(ctx, d))
}

// Get returns a device by document id.
func (r *DocumentRepository) Get(ctx context.Context, id string) (*Device, error) {
	d, err := r.devices.Get(ctx, id)
	if err != nil {
		return nil, mapError("getting device", err)
	}
	return d, nil
}

// GetByAPIKey returns the device owning key.
func (r *DocumentRepository) GetByAPIKey(ctx context.Context, key string) (*Device, error) {
	d, err := r.devices.FindOne(ctx, keyAPIKey, key)
	if err != nil {
		return nil, mapError("getting device by api key", err)
	}
	return d, nil
}

// List returns all devices in registration order.
func (r *DocumentRepository) List(ctx context.Context) ([]*Device, error) {
	ds, err := r.devices.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return ds, nil
}

// Update replaces a device under the revision it was read at.
func (r *DocumentRepository) Update(ctx context.Context, d *Device) error {
	return mapError("updating device", r.devices.Replace(ctx, d))
}

// Delete removes a device along with its data.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return mapError("deleting device", r.devices.Delete(ctx, id))
}

// Count returns the number of registered devices.
func (r *DocumentRepository) Count(ctx context.Context) (int, error) {
	return r.devices.Count(ctx)
}

func mapError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrDeviceNotFound
	case errors.Is(err, store.ErrDuplicate):
		return ErrDeviceExists
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
