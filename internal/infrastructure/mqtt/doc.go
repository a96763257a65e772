// Package mqtt publishes Tom.Camp events to an MQTT broker.
//
// When enabled, every reading a device appends is mirrored to
// tomcamp/devices/{device_id}/data so other systems can react to it
// without polling the API. The client also maintains a retained
// tomcamp/system/status message (online, offline, or the Last Will on a
// crash).
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Publish(mqtt.Topics{}.DeviceData("weather-1"), payload, client.QoS(), false)
package mqtt
