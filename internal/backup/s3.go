package backup

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Uploader copies the database file to an S3 bucket after each
// completed rebalance. Disabled when no bucket is configured.
type Uploader struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewUploader creates an S3 uploader, or nil when bucket is empty
func NewUploader(ctx context.Context, bucket, prefix string, log zerolog.Logger) (*Uploader, error) {
	if bucket == "" {
		return nil, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Uploader{
		uploader: manager.NewUploader(s3.NewFromConfig(cfg)),
		bucket:   bucket,
		prefix:   prefix,
		log:      log.With().Str("component", "backup").Logger(),
	}, nil
}

// UploadFile copies a local file to the bucket under a timestamped key
func (u *Uploader) UploadFile(ctx context.Context, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	key := path.Join(u.prefix, time.Now().UTC().Format("2006-01-02T15-04-05Z")+"-"+path.Base(filePath))
	_, err = u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &u.bucket,
		Key:    &key,
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to s3://%s/%s: %w", u.bucket, key, err)
	}

	u.log.Info().Str("bucket", u.bucket).Str("key", key).Msg("Database backup uploaded")
	return nil
}
