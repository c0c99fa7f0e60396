package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// GCSStore uploads receipt photos to a Cloud Storage bucket. Objects are
// named after the weighing date and receipt number so a day's proofs sit
// together when the bucket is listed.
type GCSStore struct {
	client *gcs.Client
	bucket string
	logger *slog.Logger
}

func NewGCSStore(ctx context.Context, bucket string, logger *slog.Logger) (*GCSStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, logger: logger}, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

func (s *GCSStore) Put(ctx context.Context, data []byte, receiptNumber, weighingDatetime string) (string, error) {
	name := objectName(receiptNumber, weighingDatetime)

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "image/jpeg"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("write object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %s: %w", name, err)
	}

	url := fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name)
	s.logger.Info("storage.upload.ok", "object", name, "bytes", len(data))
	return url, nil
}

// objectName is "<date>_<receipt>.jpg". A receipt number can come back
// empty or with slashes, so it is sanitized and falls back to a random id.
func objectName(receiptNumber, weighingDatetime string) string {
	date := "unknown-date"
	if parts := strings.Fields(weighingDatetime); len(parts) > 0 && parts[0] != "" {
		date = parts[0]
	}

	receipt := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, receiptNumber)
	receipt = strings.Trim(receipt, "_")
	if receipt == "" {
		receipt = uuid.NewString()
	}
	return fmt.Sprintf("%s_%s.jpg", date, receipt)
}

var _ ImageStore = (*GCSStore)(nil)
