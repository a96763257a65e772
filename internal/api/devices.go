package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomcamp/tomcamp-core/internal/audit"
	"github.com/tomcamp/tomcamp-core/internal/device"
)

// channelDeviceData is the WebSocket event for appended readings. Clients
// may also subscribe to one device with "device.data_appended:<device_id>".
const channelDeviceData = "device.data_appended"

// maxDataLimit caps the number of readings returned in one response.
const maxDataLimit = 1000

type createDeviceRequest struct {
	DeviceID string `json:"device_id"`
	Notes    string `json:"notes,omitempty"`
}

type appendDataRequest struct {
	DeviceID string         `json:"device_id"`
	Data     map[string]any `json:"data"`
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "list devices", err)
		return
	}
	writeJSON(w, http.StatusOK, mapViews(devices, newDeviceView))
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.devices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, "get device", err)
		return
	}
	writeJSON(w, http.StatusOK, newDeviceView(d))
}

// handleCreateDevice registers a device. The response is the only one
// besides the key endpoint that carries the API key.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d, err := s.devices.Register(r.Context(), userFromContext(r.Context()), req.DeviceID, req.Notes)
	if err != nil {
		s.writeServiceError(w, r, "create device", err)
		return
	}

	s.record(r, audit.ActionCreate, "device", d.ID, map[string]any{"device_id": d.DeviceID})
	writeJSON(w, http.StatusOK, createdDeviceView{deviceView: newDeviceView(d), APIKey: d.APIKey})
}

// handleGetDeviceKey returns a device's API key. ADMIN only.
func (s *Server) handleGetDeviceKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	key, err := s.devices.APIKey(r.Context(), userFromContext(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, r, "get device key", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "api_key": key})
}

// handleGetDeviceData returns the reading log. ?limit=N keeps the newest N.
func (s *Server) handleGetDeviceData(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeValidationError(w)
			return
		}
		limit = min(n, maxDataLimit)
	}

	points, err := s.devices.Data(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.writeServiceError(w, r, "get device data", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  points,
		"count": len(points),
	})
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.devices.Delete(r.Context(), userFromContext(r.Context()), id); err != nil {
		s.writeServiceError(w, r, "delete device", err)
		return
	}

	s.record(r, audit.ActionDelete, "device", id, nil)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Device deleted successfully"})
}

// handleAppendDeviceData stores a reading from an API-key-authenticated
// device. The body's device_id must name the key's own device.
func (s *Server) handleAppendDeviceData(w http.ResponseWriter, r *http.Request) {
	var req appendDataRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	dev := deviceFromContext(r.Context())
	if _, err := s.devices.AppendData(r.Context(), dev, req.DeviceID, req.Data); err != nil {
		s.writeServiceError(w, r, "append device data", err)
		return
	}

	if s.audit != nil {
		s.audit.Record(audit.Entry{
			Action:     audit.ActionAppend,
			EntityType: "device",
			EntityID:   dev.ID,
			Source:     "device",
			Details:    map[string]any{"device_id": dev.DeviceID},
		})
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Data received"})
}

// broadcastDeviceData is registered as a device.Sink.
func (s *Server) broadcastDeviceData(_ context.Context, dev *device.Device, point device.DataPoint) {
	s.hub.Broadcast(map[string]any{
		"id":        dev.ID,
		"device_id": dev.DeviceID,
		"timestamp": point.Timestamp,
		"data":      point.Data,
	}, channelDeviceData, channelDeviceData+":"+dev.DeviceID)
}
