package avro

import (
	"go.uber.org/fx"
)

// NewAvroModule provides a shared Deserializer. Serializers are per subject and
// owned by the publisher.
func NewAvroModule() fx.Option {
	return fx.Provide(NewDeserializer)
}
