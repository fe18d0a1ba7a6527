package app

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/feed"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/consumer"
)

// Listener names under kafka.consumers-config.consumers.
const (
	VectorizingListener = "memorial-vectorizing"
	DeleteListener      = "memorial-vector-delete"
)

// Feed runs the memorial listeners of the feed service.
type Feed struct {
	listeners []*consumer.Listener
	log       *zap.Logger
}

// NewFeed attaches the vectorizing and delete handlers to their listeners.
func NewFeed(listeners consumer.Listeners, vectorizing *feed.VectorizingService, deleter *feed.DeleteService, log *zap.Logger) (*Feed, error) {
	vectorizingListener, err := listeners.Get(VectorizingListener)
	if err != nil {
		return nil, err
	}
	deleteListener, err := listeners.Get(DeleteListener)
	if err != nil {
		return nil, err
	}

	vectorizingListener.SetMessageHandler(vectorizing.Handle)
	deleteListener.SetMessageHandler(deleter.Handle)

	return &Feed{
		listeners: []*consumer.Listener{vectorizingListener, deleteListener},
		log:       log,
	}, nil
}

// Run consumes every listener until ctx is cancelled. The first fatal
// listener error cancels the others and is returned.
func (f *Feed) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range f.listeners {
		g.Go(func() error {
			f.log.Info("listener running", zap.String("listener", l.Name()), zap.String("topic", l.Topic()))
			return l.Consume(ctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
