package influxdb_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomcamp/tomcamp-core/internal/infrastructure/config"
	"github.com/tomcamp/tomcamp-core/internal/infrastructure/influxdb"
)

// fakeServer answers /ping and records line protocol posted to /api/v2/write.
type fakeServer struct {
	*httptest.Server
	mu    sync.Mutex
	lines []string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ping":
			w.WriteHeader(http.StatusNoContent)
		case "/api/v2/write":
			body, _ := io.ReadAll(r.Body) //nolint:errcheck // Test server
			f.mu.Lock()
			for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
				if line != "" {
					f.lines = append(f.lines, line)
				}
			}
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeServer) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

// waitFor polls until n lines arrived or timeout passed. The write API
// hands batches to a background goroutine.
func (f *fakeServer) waitFor(n int, timeout time.Duration) []string {
	deadline := time.Now().Add(timeout)
	for {
		lines := f.written()
		if len(lines) >= n || time.Now().After(deadline) {
			return lines
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "tomcamp-test-token",
		Org:           "tomcamp",
		Bucket:        "devices",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:8086")
	cfg.Enabled = false

	if _, err := influxdb.Connect(cfg); !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := influxdb.Connect(testConfig(url)); !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestWriteDeviceData(t *testing.T) {
	srv := newFakeServer(t)

	client, err := influxdb.Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	ts := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	if !client.WriteDeviceData("weather-1", map[string]any{"temp": 21.5, "label": "x"}, ts) {
		t.Fatal("WriteDeviceData() = false, want true")
	}
	if client.WriteDeviceData("weather-1", map[string]any{"label": "only strings"}, ts) {
		t.Error("WriteDeviceData(no numeric fields) = true, want false")
	}
	client.Flush()

	lines := srv.waitFor(1, 2*time.Second)
	if len(lines) != 1 {
		t.Fatalf("written lines = %v, want 1", lines)
	}
	if !strings.HasPrefix(lines[0], "device_data,device_id=weather-1 temp=21.5") {
		t.Errorf("line = %q", lines[0])
	}
	if client.Written() != 1 {
		t.Errorf("Written() = %d, want 1", client.Written())
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if client.WriteDeviceData("weather-1", map[string]any{"temp": 1.0}, ts) {
		t.Error("WriteDeviceData() after Close = true")
	}
}

func TestClose_Nil(t *testing.T) {
	var client *influxdb.Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

func TestFields(t *testing.T) {
	got := influxdb.Fields(map[string]any{
		"temp":   21.5,
		"count":  3,
		"on":     true,
		"name":   "porch",
		"nested": map[string]any{"a": 1.0},
		"none":   nil,
	})
	if len(got) != 3 {
		t.Fatalf("Fields() = %v, want temp, count and on", got)
	}
	if got["count"] != 3.0 {
		t.Errorf("count = %v (%T), want float64 3", got["count"], got["count"])
	}
	if got["on"] != true {
		t.Errorf("on = %v, want true", got["on"])
	}
}

func TestDevicePoint_Empty(t *testing.T) {
	if p := influxdb.DevicePoint("d", map[string]any{"s": "x"}, time.Now()); p != nil {
		t.Error("DevicePoint() with no storable fields should be nil")
	}
}
