package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// objectPutter is the subset of the S3 client used by s3Store.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Store implements Store on top of an S3 bucket.
type s3Store struct {
	client    objectPutter
	bucket    string
	prefix    string
	publicURL string
	logger    zerolog.Logger
}

// NewS3Store creates a store uploading to bucket. Keys are prefix+name and
// URLs are publicURL+"/"+key.
func NewS3Store(ctx context.Context, bucket, region, prefix, publicURL string, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "s3-store").Logger()

	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 store initialised")

	return newS3Store(s3.NewFromConfig(cfg), bucket, prefix, publicURL, logger), nil
}

func newS3Store(client objectPutter, bucket, prefix, publicURL string, logger zerolog.Logger) *s3Store {
	return &s3Store{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		logger:    logger,
	}
}

// Put uploads body as prefix+name.
func (s *s3Store) Put(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	key := s.prefix + name

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	s.logger.Info().
		Str("bucket", s.bucket).
		Str("key", key).
		Msg("upload stored in S3")

	return s.publicURL + "/" + key, nil
}

// fallbackStore tries S3 first, then falls back to the local file system.
type fallbackStore struct {
	s3Store   Store
	fileStore Store
	s3Enabled bool
	logger    zerolog.Logger
}

// NewFallbackStore creates a store that tries S3 first, then falls back to
// the local file system. If s3Store is nil, only the file store is used.
func NewFallbackStore(s3Store, fileStore Store, s3Enabled bool, logger zerolog.Logger) Store {
	return &fallbackStore{
		s3Store:   s3Store,
		fileStore: fileStore,
		s3Enabled: s3Enabled,
		logger:    logger.With().Str("component", "fallback-store").Logger(),
	}
}

// Put stores body in S3 when enabled and reachable, otherwise on disk. A
// body that was partly consumed by a failed S3 attempt is rewound when it
// supports seeking; otherwise the S3 error is returned.
func (s *fallbackStore) Put(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	if s.s3Enabled && s.s3Store != nil {
		url, err := s.s3Store.Put(ctx, name, contentType, body)
		if err == nil {
			return url, nil
		}

		seeker, ok := body.(io.Seeker)
		if !ok {
			return "", err
		}
		if _, seekErr := seeker.Seek(0, io.SeekStart); seekErr != nil {
			return "", fmt.Errorf("failed to rewind upload after S3 error: %w", seekErr)
		}

		s.logger.Warn().
			Err(err).
			Str("name", name).
			Msg("failed to store in S3, falling back to local file system")
	} else {
		s.logger.Debug().
			Bool("s3_enabled", s.s3Enabled).
			Bool("has_s3_store", s.s3Store != nil).
			Msg("S3 disabled or not configured, using local file system")
	}

	return s.fileStore.Put(ctx, name, contentType, body)
}
