package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"gatehouse/internal/constants"
	"gatehouse/internal/logging"
	"gatehouse/internal/metrics"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// SnapshotSource returns the stored document of a collection.
type SnapshotSource interface {
	Raw(ctx context.Context, name constants.CollectionName) ([]byte, error)
}

// ObjectPutter is the part of the S3 client the backup needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

// S3Storage uploads objects to an S3-compatible bucket.
type S3Storage struct {
	Client     *minio.Client
	BucketName string
}

func NewS3Storage(endpoint, accessKey, secretKey, bucket, region string, useSSL bool) (*S3Storage, error) {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	var creds *credentials.Credentials
	if accessKey == "" || secretKey == "" {
		creds = credentials.NewIAM("")
	} else {
		creds = credentials.NewStaticV4(accessKey, secretKey, "")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}
	return &S3Storage{Client: client, BucketName: bucket}, nil
}

func (s *S3Storage) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	_, err := s.Client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

// BackupJob copies every collection to the bucket under a timestamped
// prefix.
type BackupJob struct {
	source  SnapshotSource
	store   ObjectPutter
	bucket  string
	metrics *metrics.MetricsRegistry
	now     func() time.Time
}

func NewBackupJob(source SnapshotSource, store ObjectPutter, bucket string, m *metrics.MetricsRegistry) *BackupJob {
	return &BackupJob{source: source, store: store, bucket: bucket, metrics: m, now: time.Now}
}

// Run uploads one snapshot. Collections that were never written are
// skipped. It returns the number of objects written.
func (j *BackupJob) Run(ctx context.Context) (int, error) {
	started := time.Now()
	defer j.metrics.BackupFinished(started)

	start := j.now()
	prefix := path.Join("backups", start.UTC().Format("20060102T150405Z"))
	written := 0
	var errs []error

	for _, name := range constants.AllCollections {
		data, err := j.source.Raw(ctx, name)
		if errors.Is(err, constants.ErrCollectionMissing) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", name, err))
			continue
		}

		key := path.Join(prefix, string(name)+".json")
		if err := j.store.PutObject(ctx, j.bucket, key, data); err != nil {
			errs = append(errs, fmt.Errorf("upload %s: %w", key, err))
			continue
		}
		written++
	}

	logging.Info("Backup finished", "prefix", prefix, "objects", written, "errors", len(errs))
	return written, errors.Join(errs...)
}

// RunScheduled runs the backup every interval until ctx is done.
func (j *BackupJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := j.Run(ctx); err != nil {
		logging.Error("Initial backup failed", "error", err.Error())
	}

	for {
		select {
		case <-ticker.C:
			if _, err := j.Run(ctx); err != nil {
				logging.Error("Scheduled backup failed", "error", err.Error())
			}
		case <-ctx.Done():
			logging.Info("Backup job shutting down")
			return
		}
	}
}
