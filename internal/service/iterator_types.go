package service

import (
	"context"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"
)

// MessageIterator is the message source consumed by Iterator.
// Implementations own the lifecycle of the consumer connection.
type MessageIterator interface {
	// Messages is closed by the implementation when the consumer stops.
	Messages() <-chan kafka.Message

	// CommitOffset acknowledges that a message has been processed.
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// LoaderFunc loads and decodes the object named by a storage event. It must
// honour ctx and should not modify the object store.
type LoaderFunc[T any] func(ctx context.Context, bucket, key string) (T, error)

// FetchedObject pairs a decoded object with the notification record that
// triggered its retrieval.
type FetchedObject[T any] struct {
	Data  T
	Event notification.Event
}
