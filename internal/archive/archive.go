// Package archive uploads rendered reports to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-cli/internal/config"
)

const pdfContentType = "application/pdf"

// Store writes report bytes to a bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// New creates a Store from cfg. It does not contact the server.
func New(cfg config.S3Config) (*Store, error) {
	if !cfg.Enabled() {
		return nil, eris.New("archive: endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, eris.Wrap(err, "archive: create client")
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return eris.Wrap(err, "archive: check bucket")
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return eris.Wrap(err, "archive: make bucket")
	}
	return nil
}

// Key returns the object key for a report produced by a session.
func Key(sessionID, filename string) string {
	return path.Join(sessionID, path.Base(filename))
}

// Put uploads a PDF under key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: pdfContentType},
	)
	if err != nil {
		return eris.Wrapf(err, "archive: put %s", key)
	}
	return nil
}
