package feed

import (
	_ "embed"
)

// Topics consumed and produced by the feed service.
const (
	TopicVectorizingRequest  = "memorial-vectorizing-request"
	TopicVectorizingResponse = "memorial-vectorizing-response"
	TopicDeleteRequest       = "memorial-vector-delete-request"
	TopicDeleteResponse      = "memorial-vector-delete-response"
)

// FeedAvroSchema is the value schema of memorial-vectorizing-response.
//
//go:embed schemas/FeedAvroSchema.avsc
var FeedAvroSchema string

// MemorialAvroSchema is the value schema of memorial-vector-delete-response.
//
//go:embed schemas/MemorialAvroSchema.avsc
var MemorialAvroSchema string
