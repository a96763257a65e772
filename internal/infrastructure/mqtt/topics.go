package mqtt

import "fmt"

// Topic prefixes.
const (
	// TopicPrefix is the root of every Tom.Camp topic.
	TopicPrefix = "tomcamp"

	// TopicPrefixDevices is the base for per-device topics.
	TopicPrefixDevices = "tomcamp/devices"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "tomcamp/system"
)

// Topics provides builders for Tom.Camp MQTT topics.
//
//	topic := mqtt.Topics{}.DeviceData("weather-1")
//	// Returns: "tomcamp/devices/weather-1/data"
type Topics struct{}

// DeviceData returns the topic a device's appended readings are mirrored to.
//
// Example: tomcamp/devices/weather-1/data
func (Topics) DeviceData(deviceID string) string {
	return fmt.Sprintf("%s/%s/data", TopicPrefixDevices, deviceID)
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: tomcamp/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceData returns a pattern matching every device's data topic.
//
// Pattern: tomcamp/devices/+/data
func (Topics) AllDeviceData() string {
	return fmt.Sprintf("%s/+/data", TopicPrefixDevices)
}

// AllTopics returns a pattern matching all Tom.Camp topics.
//
// Pattern: tomcamp/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
