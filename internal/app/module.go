package app

import (
	"go.uber.org/fx"

	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/feed"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/worker"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/producer"
)

// NewServicesModule provides the vectorizing, delete and search services. It
// expects the collaborator modules and the Avro publisher.
func NewServicesModule() fx.Option {
	return fx.Module("feed-services",
		fx.Provide(
			func(p *producer.AvroPublisher) feed.EventPublisher { return p },
			feed.NewVectorizingService,
			feed.NewDeleteService,
			feed.NewSearchService,
		),
	)
}

// NewFeedModule runs the memorial listeners as a worker once every component
// is ready. A fatal listener error shuts the application down.
func NewFeedModule() fx.Option {
	return fx.Module("feed",
		NewServicesModule(),
		fx.Provide(
			NewFeed,
			worker.Register[*Feed]("feed-listeners", worker.WithReady(), worker.WithShutdown()),
		),
		worker.Invoke(),
	)
}
