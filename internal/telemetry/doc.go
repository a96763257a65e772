// Package telemetry forwards appended device readings to external systems.
//
// Each sink implements device.Sink and is registered on the device
// service at startup. Sinks never fail an append: a broker or database
// outage is logged and the reading stays in the document store.
package telemetry
