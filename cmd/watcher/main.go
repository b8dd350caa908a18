package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"wanderlog/internal/app"
	"wanderlog/internal/extract"
	"wanderlog/internal/keys"
	"wanderlog/internal/service"
	"wanderlog/pkg/graceful"
	"wanderlog/pkg/kafkaclient"
)

const sourceType = "google_timeline"

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	if err := a.Config.ValidateGeocoder(); err != nil {
		a.Log.Fatal("Geocoder is not configured", zap.Error(err))
	}
	if a.S3 == nil {
		a.Log.Fatal("The watcher needs MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY")
	}
	kafkaCfg := kafkaclient.Config{
		Broker:  a.Config.KafkaBroker,
		Topic:   a.Config.KafkaTopic,
		GroupID: a.Config.KafkaGroupID,
	}
	if kafkaCfg.Broker == "" || kafkaCfg.Topic == "" {
		a.Log.Fatal("The watcher needs KAFKA_BROKER and KAFKA_TOPIC")
	}

	ctx, cancel := graceful.Context(context.Background(), a.Log)
	defer cancel()

	if err := a.S3.EnsureBucket(ctx, a.Config.ExportBucket, ""); err != nil {
		a.Log.Fatal("Failed to prepare export bucket", zap.String("bucket", a.Config.ExportBucket), zap.Error(err))
	}

	a.Log.Info("Connecting to Kafka",
		zap.String("broker", kafkaCfg.Broker),
		zap.String("topic", kafkaCfg.Topic),
		zap.String("group", kafkaCfg.GroupID))

	consumer := kafkaclient.NewConsumer(kafkaCfg, a.Log.Named("kafka"))
	consumer.StartConsuming(ctx)

	iterator := service.NewIterator(consumer, loadExport(a), a.Log.Named("iterator"))
	for obj := range iterator.Objects(ctx) {
		if obj.Data == nil {
			continue
		}
		key := obj.Event.S3.Object.Key
		report, err := a.Catalog.Ingest(ctx, obj.Data, sourceType)
		if err != nil {
			a.Log.Error("Failed to ingest export", zap.String("key", key), zap.Error(err))
			continue
		}
		a.Log.Info("Ingested export",
			zap.String("key", key),
			zap.Int("added", report.Added),
			zap.Int("duplicates", report.Duplicates),
			zap.Int("malformed", report.Malformed))
	}

	consumer.Stop()
	a.Log.Info("Watcher finished, application exiting.")
}

// loadExport fetches exports from the bucket and returns nil for objects that
// are not exports.
func loadExport(a *app.App) service.LoaderFunc[*extract.Export] {
	return func(ctx context.Context, bucket, key string) (*extract.Export, error) {
		if !keys.IsExport(key) {
			a.Log.Debug("Ignoring non-export object", zap.String("bucket", bucket), zap.String("key", key))
			return nil, nil
		}
		return a.S3.GetExport(ctx, bucket, key)
	}
}
