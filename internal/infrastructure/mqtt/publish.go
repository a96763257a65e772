package mqtt

import (
	"fmt"
)

// maxPayloadSize caps a single message at 1MB, in line with typical
// broker limits.
const maxPayloadSize = 1 << 20

// Publish sends payload to topic.
//
// QoS 0 is fire and forget, 1 is at least once, 2 is exactly once.
// Retained messages are stored by the broker for new subscribers; use them
// for status topics only, never for event streams such as device data.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	err := c.publish(topic, payload, qos, retained)
	c.count(err)
	return err
}

func (c *Client) publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}
