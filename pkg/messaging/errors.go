// Package messaging holds broker-agnostic pieces shared by the Kafka producer and consumer.
package messaging

import "fmt"

// BrokerError reports a failure talking to the Kafka cluster:
// a rejected delivery, a failed subscription, or a fatal consumer error.
type BrokerError struct {
	Op    string
	Topic string
	Err   error
}

func (e *BrokerError) Error() string {
	if e.Topic == "" {
		return fmt.Sprintf("kafka %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("kafka %s (topic %s): %v", e.Op, e.Topic, e.Err)
}

func (e *BrokerError) Unwrap() error {
	return e.Err
}

// NewBrokerError wraps err, returning nil when err is nil.
func NewBrokerError(op, topic string, err error) error {
	if err == nil {
		return nil
	}
	return &BrokerError{Op: op, Topic: topic, Err: err}
}
