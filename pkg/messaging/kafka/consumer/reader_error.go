package consumer

import (
	"errors"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

type readErrorKind int

const (
	readErrorTimeout readErrorKind = iota
	readErrorFatal
	readErrorTopicNotFound
	readErrorBrokerConnection
	readErrorLeaderElection
	readErrorRetriable
	readErrorUnknown
)

// readError classifies a ReadMessage failure.
type readError struct {
	err         error
	kind        readErrorKind
	key         string // throttling key
	description string
}

func (e *readError) Error() string {
	if e.description == "" {
		return e.err.Error()
	}
	return e.description + ": " + e.err.Error()
}

func (e *readError) Unwrap() error {
	return e.err
}

func classifyReadError(err error) *readError {
	if err == nil {
		return nil
	}

	var kafkaErr kafka.Error
	if !errors.As(err, &kafkaErr) {
		return &readError{err: err, kind: readErrorUnknown, key: "non-kafka", description: "unexpected read error"}
	}

	switch {
	case kafkaErr.IsTimeout() || kafkaErr.Code() == kafka.ErrTimedOut:
		return &readError{err: err, kind: readErrorTimeout}
	case kafkaErr.IsFatal() || kafkaErr.Code() == kafka.ErrState:
		return &readError{err: err, kind: readErrorFatal, description: "fatal kafka error, consumer is no longer operable"}
	}

	switch kafkaErr.Code() {
	case kafka.ErrUnknownTopicOrPart, kafka.ErrUnknownTopic:
		return &readError{err: err, kind: readErrorTopicNotFound, key: "topic-not-found", description: "topic not available, waiting for topic creation"}
	case kafka.ErrTransport, kafka.ErrAllBrokersDown, kafka.ErrNetworkException:
		return &readError{err: err, kind: readErrorBrokerConnection, key: "broker-connection", description: "broker connection issue, retrying"}
	case kafka.ErrLeaderNotAvailable, kafka.ErrNotLeaderForPartition:
		return &readError{err: err, kind: readErrorLeaderElection, key: "leader-election", description: "partition leader changing, retrying"}
	}

	if kafkaErr.IsRetriable() {
		return &readError{err: err, kind: readErrorRetriable, key: "retriable", description: "retriable kafka error, retrying"}
	}
	return &readError{err: err, kind: readErrorUnknown, key: kafkaErr.Code().String(), description: "kafka read error"}
}

func (e *readError) isTimeout() bool {
	return e.kind == readErrorTimeout
}

func (e *readError) isFatal() bool {
	return e.kind == readErrorFatal
}

// isTemporary reports errors worth backing off for before the next read.
func (e *readError) isTemporary() bool {
	switch e.kind {
	case readErrorTopicNotFound, readErrorBrokerConnection, readErrorLeaderElection, readErrorRetriable:
		return true
	default:
		return false
	}
}
