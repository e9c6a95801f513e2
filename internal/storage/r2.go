package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// R2Config contains configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID   string
	AccessKeyID string
	SecretKey   string
	BucketName  string
	PublicURL   string
}

// Validate checks the required fields.
func (c R2Config) Validate() error {
	if c.AccountID == "" {
		return ErrR2AccountIDRequired
	}
	if c.AccessKeyID == "" || c.SecretKey == "" {
		return ErrR2CredentialsRequired
	}
	if c.BucketName == "" {
		return ErrR2BucketRequired
	}
	return nil
}

// R2Storage implements Storage using Cloudflare R2's S3 API.
type R2Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewR2Storage creates an R2-backed Storage.
func NewR2Storage(ctx context.Context, cfg R2Config) (*R2Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	credsProvider := credentials.NewStaticCredentialsProvider(
		cfg.AccessKeyID,
		cfg.SecretKey,
		"",
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credsProvider),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &R2Storage{
		client:    client,
		bucket:    cfg.BucketName,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

// Put stores a file in R2. PDFs are stored as private, non-cacheable
// downloads named after the last key segment.
func (s *R2Storage) Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, putInput(s.bucket, key, content, contentType))
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	return s.URL(key), nil
}

func putInput(bucket, key string, content io.Reader, contentType string) *s3.PutObjectInput {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType),
	}
	if contentType == pdfContentType {
		input.CacheControl = aws.String("private, no-store")
		input.ContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	}
	return input
}

// Get retrieves a file from R2.
func (s *R2Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, ErrFileNotFound(key)
		}
		return nil, fmt.Errorf("failed to get from R2: %w", err)
	}

	return result.Body, nil
}

// URL returns the public URL for accessing a file.
func (s *R2Storage) URL(key string) string {
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s", s.publicURL, key)
	}
	return key
}

// Exists checks if a file exists in R2.
func (s *R2Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check existence in R2: %w", err)
	}

	return true, nil
}

func isNotFoundError(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
