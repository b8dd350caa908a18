// Package storage mirrors place store backups into an S3 compatible bucket,
// loads uploaded timeline exports, and exports place snapshots to Postgres.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"wanderlog/internal/extract"
	"wanderlog/internal/keys"
	"wanderlog/pkg/logger"
)

// objectAPI is the part of *minio.Client the service uses.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
}

type S3Config struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	BackupBucket string
}

// S3Service is a client for S3-compatible storage.
type S3Service struct {
	client       objectAPI
	backupBucket string
	log          *zap.Logger
	now          func() time.Time
}

func NewS3Service(cfg S3Config, log *zap.Logger) (*S3Service, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("missing one or more required settings: MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	log = logger.OrNop(log)
	log.Info("Connected to MinIO endpoint", zap.String("endpoint", cfg.Endpoint))
	return newS3Service(minioClient, cfg.BackupBucket, log), nil
}

func newS3Service(client objectAPI, backupBucket string, log *zap.Logger) *S3Service {
	return &S3Service{client: client, backupBucket: backupBucket, log: logger.OrNop(log), now: time.Now}
}

// EnsureBucket creates bucketName when it does not exist yet.
func (s *S3Service) EnsureBucket(ctx context.Context, bucketName, location string) error {
	exists, err := s.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("failed to create bucket %q: %w", bucketName, err)
	}
	s.log.Info("Created bucket", zap.String("bucket", bucketName))
	return nil
}

// PutIfAbsent stores the object unless the key already exists. It reports
// whether a write happened.
func (s *S3Service) PutIfAbsent(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		s.log.Info("Object already exists, ignoring write", zap.String("bucket", bucket), zap.String("key", key))
		return false, nil
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return false, fmt.Errorf("failed to check for existing object: %w", err)
	}

	if _, err := s.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return false, fmt.Errorf("failed to store object in S3: %w", err)
	}
	s.log.Info("Stored object", zap.String("bucket", bucket), zap.String("key", key))
	return true, nil
}

// MirrorBackup copies a local backup file into the backup bucket.
func (s *S3Service) MirrorBackup(ctx context.Context, localPath string) error {
	if s.backupBucket == "" {
		return fmt.Errorf("no backup bucket configured")
	}
	return s.uploadFile(ctx, s.backupBucket, keys.Backup(filepath.Base(localPath), s.now()), localPath, "text/csv")
}

// UploadExport stores a local export file in bucket and returns its key.
func (s *S3Service) UploadExport(ctx context.Context, bucket, localPath string) (string, error) {
	key := keys.Export(filepath.Base(localPath), s.now())
	return key, s.uploadFile(ctx, bucket, key, localPath, "application/json")
}

func (s *S3Service) uploadFile(ctx context.Context, bucket, key, localPath, contentType string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	_, err = s.PutIfAbsent(ctx, bucket, key, f, info.Size(), contentType)
	return err
}

// GetExport streams an export object and decodes it. Its signature matches
// service.LoaderFunc.
func (s *S3Service) GetExport(ctx context.Context, bucket, key string) (*extract.Export, error) {
	object, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	export, err := extract.Decode(object)
	if err != nil {
		return nil, err
	}
	s.log.Info("Loaded export",
		zap.String("bucket", bucket), zap.String("key", key), zap.Int("segments", len(export.SemanticSegments)))
	return export, nil
}
