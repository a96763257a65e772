// Package device manages IoT devices registered with Tom.Camp Core.
//
// A device is created by an ADMIN and receives a random API key at that
// moment. The device then authenticates with that key (X-API-Key header)
// to append readings to its own data log. Keys are never listed; an ADMIN
// can fetch a single device's key explicitly.
//
// Appended readings are fanned out to registered Sinks (MQTT, InfluxDB,
// WebSocket) after they are persisted.
package device
