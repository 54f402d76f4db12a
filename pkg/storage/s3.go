package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/noah-isme/edustream-api/pkg/config"
)

type objectAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store stores objects in an S3 compatible bucket using path-style addressing.
type S3Store struct {
	client     objectAPI
	bucket     string
	endpoint   string
	publicBase string
	logger     *zap.Logger

	mu          sync.Mutex
	bucketReady bool
}

// NewS3Store builds a store from configuration.
func NewS3Store(cfg config.StorageConfig, logger *zap.Logger) *S3Store {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := s3.Options{
		Region:       region,
		UsePathStyle: true,
		Credentials:  aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return newS3Store(s3.New(opts), cfg, logger)
}

func newS3Store(client objectAPI, cfg config.StorageConfig, logger *zap.Logger) *S3Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Store{
		client:     client,
		bucket:     cfg.Bucket,
		endpoint:   cfg.Endpoint,
		publicBase: cfg.PublicBase,
		logger:     logger,
	}
}

// Upload writes the object under a generated key and returns that key.
func (s *S3Store) Upload(ctx context.Context, obj Object) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	key := NewKey(obj.Folder, obj.Filename)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   obj.Body,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

// Delete removes the object. Failures are logged and swallowed.
func (s *S3Store) Delete(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		s.logger.Warn("failed to delete object", zap.String("key", key), zap.Error(err))
	}
}

// URL resolves the public URL of a key.
func (s *S3Store) URL(key string) string {
	if key == "" {
		return ""
	}
	base := s.publicBase
	if base == "" {
		base = s.endpoint
	}
	return fmt.Sprintf("%s/%s/%s", base, s.bucket, key)
}

// KeyFromURL recovers the key of an object referenced by URL.
func (s *S3Store) KeyFromURL(raw string) string {
	return keyFromURL(raw, s.bucket)
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	switch {
	case err == nil:
	case isBucketMissing(err):
		if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
		s.logger.Info("created storage bucket", zap.String("bucket", s.bucket))
	default:
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}

	s.bucketReady = true
	return nil
}

func isBucketMissing(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchBucket"
	}
	return false
}
