package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

type metadataProvider interface {
	GetMetadata(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error)
}

// waitForTopic polls metadata until topic exists with partitions. On timeout it
// fails when failOnError is set and only warns otherwise.
func waitForTopic(ctx context.Context, p metadataProvider, topic string, log *zap.Logger, timeoutSec int, failOnError bool) error {
	if timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
		defer cancel()
	}

	var lastErr error
	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(200*time.Millisecond),
		backoff.WithMaxInterval(5*time.Second),
		backoff.WithMaxElapsedTime(0),
	), ctx)

	err := backoff.Retry(func() error {
		lastErr = checkTopic(p, topic)
		return lastErr
	}, policy)
	if err == nil {
		log.Info("topic is ready", zap.String("topic", topic))
		return nil
	}

	if lastErr != nil && lastErr != err {
		err = fmt.Errorf("%w: %v", err, lastErr)
	}
	if failOnError {
		return err
	}
	log.Warn("topic not ready, continuing", zap.String("topic", topic), zap.Error(err))
	return nil
}

func checkTopic(p metadataProvider, topic string) error {
	meta, err := p.GetMetadata(&topic, false, 5000)
	if err != nil {
		return fmt.Errorf("failed to get topic metadata: %w", err)
	}

	tm, ok := meta.Topics[topic]
	switch {
	case !ok:
		return fmt.Errorf("topic %s not found in metadata", topic)
	case tm.Error.Code() != kafka.ErrNoError:
		return fmt.Errorf("topic %s has error: %w", topic, tm.Error)
	case len(tm.Partitions) == 0:
		return fmt.Errorf("topic %s has no partitions", topic)
	}
	return nil
}
