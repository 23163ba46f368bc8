package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	appconfig "example.com/backstage/foodshare/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrStorageDisabled is returned when no bucket is configured
var ErrStorageDisabled = errors.New("upload archive is disabled")

// S3Archiver keeps a copy of every uploaded import file in a bucket
type S3Archiver struct {
	client  *s3.Client
	bucket  string
	prefix  string
	enabled bool
	now     func() time.Time
}

// NewS3Archiver creates an archiver for the configured bucket. Static
// credentials are used when set, otherwise the default AWS chain.
func NewS3Archiver(ctx context.Context, cfg appconfig.StorageConfig) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return &S3Archiver{enabled: false}, nil
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load AWS config for S3")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archiver{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		enabled: true,
		now:     time.Now,
	}, nil
}

// Enabled reports whether uploads are archived
func (a *S3Archiver) Enabled() bool { return a.enabled }

// Archive stores the file content and returns its object key
func (a *S3Archiver) Archive(ctx context.Context, name string, content []byte) (string, error) {
	if !a.enabled {
		return "", ErrStorageDisabled
	}

	key := a.objectKey(name)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to upload %s to S3", name)
	}

	log.Debug().Str("bucket", a.bucket).Str("key", key).Int("bytes", len(content)).Msg("Archived import file")
	return key, nil
}

// objectKey builds prefix/YYYY/MM/DD/<uuid>-<base name>
func (a *S3Archiver) objectKey(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = "upload.csv"
	}
	key := fmt.Sprintf("%s/%s-%s", a.now().UTC().Format("2006/01/02"), uuid.NewString(), base)
	if a.prefix == "" {
		return key
	}
	return a.prefix + "/" + key
}
