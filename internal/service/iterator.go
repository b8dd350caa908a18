// Package service composes the ingestion core into the operations exposed to
// the command line and the bucket watcher. Catalog serialises access to the
// place and trip stores; Iterator turns bucket notifications into loaded
// exports.
package service

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"wanderlog/pkg/logger"
)

// Iterator consumes messages from a MessageIterator, interprets each message
// as a MinIO/S3 notification, loads every referenced object via LoaderFunc,
// and yields FetchedObject items on a channel. It is generic over the loaded
// item type T.
//
// The Iterator does not manage the lifecycle of the underlying message source;
// callers start and stop their consumer outside.
type Iterator[T any] struct {
	msgIterator MessageIterator
	loader      LoaderFunc[T]
	log         *zap.Logger
}

func NewIterator[T any](iterator MessageIterator, loader LoaderFunc[T], log *zap.Logger) *Iterator[T] {
	return &Iterator[T]{
		msgIterator: iterator,
		loader:      loader,
		log:         logger.OrNop(log),
	}
}

// Objects streams one FetchedObject per record of every notification. A
// message is committed once all of its records were handled; records that
// fail to load are logged and skipped, and undecodable messages are committed
// so they are not redelivered forever. The output channel is closed when the
// message channel closes or ctx is done.
func (it *Iterator[T]) Objects(ctx context.Context) <-chan *FetchedObject[T] {
	out := make(chan *FetchedObject[T])
	go func() {
		defer close(out)

		for msg := range it.msgIterator.Messages() {
			var info notification.Info
			if err := json.Unmarshal(msg.Value, &info); err != nil {
				it.log.Warn("Skipping undecodable notification", zap.Int64("offset", msg.Offset), zap.Error(err))
				it.commit(ctx, msg)
				continue
			}

			for _, record := range info.Records {
				bucket := record.S3.Bucket.Name
				objectKey, err := url.QueryUnescape(record.S3.Object.Key)
				if err != nil {
					it.log.Warn("Skipping record with malformed object key",
						zap.String("key", record.S3.Object.Key), zap.Error(err))
					continue
				}

				data, err := it.loader(ctx, bucket, objectKey)
				if err != nil {
					it.log.Warn("Error loading object",
						zap.String("bucket", bucket), zap.String("key", objectKey), zap.Error(err))
					continue
				}

				select {
				case out <- &FetchedObject[T]{Data: data, Event: record}:
				case <-ctx.Done():
					return
				}
			}

			it.commit(ctx, msg)
		}
	}()
	return out
}

func (it *Iterator[T]) commit(ctx context.Context, msg kafka.Message) {
	if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
		it.log.Warn("Failed to commit offset", zap.Int64("offset", msg.Offset), zap.Error(err))
	}
}
