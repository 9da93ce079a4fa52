package blob

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures the S3 fetcher. Empty keys use the default AWS
// credential chain. Endpoint targets S3-compatible stores with path-style
// addressing.
type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// S3 downloads s3://bucket/key objects with the transfer manager.
type S3 struct {
	downloader *manager.Downloader
}

// NewS3 creates an S3 fetcher.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3: region not set")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3{downloader: manager.NewDownloader(client)}, nil
}

// Fetch implements Fetcher.
func (s *S3) Fetch(ctx context.Context, locator string) (*Object, error) {
	bucket, key, err := ParseS3Locator(locator)
	if err != nil {
		return nil, err
	}

	buf := manager.NewWriteAtBuffer(nil)
	if _, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, fmt.Errorf("%w: s3 get failed: %w", ErrFetchFailed, err)
	}
	return &Object{Data: buf.Bytes(), ContentType: typeByName(key)}, nil
}

// ParseS3Locator splits s3://bucket/key.
func ParseS3Locator(locator string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(locator, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedLocator, locator)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s needs a bucket and a key", ErrUnsupportedLocator, locator)
	}
	return bucket, key, nil
}
