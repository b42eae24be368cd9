package blob

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Store stores evidence photos in an S3 bucket (or any S3-compatible
// endpoint).
type S3Store struct {
	client *s3.S3
	bucket string
}

// S3Config holds the settings for the evidence bucket.
type S3Config struct {
	Region    string
	Bucket    string
	Endpoint  string // optional, for S3-compatible services
	AccessKey string
	SecretKey string
}

// NewS3Store creates a new S3-backed blob store.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	if cfg.AccessKey != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""))
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return &S3Store{client: s3.New(sess), bucket: cfg.Bucket}, nil
}

// Put uploads data under the given key. The returned ref is the S3
// object key.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}

// Delete removes a previously uploaded object.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", ref, err)
	}
	return nil
}

// Ensure the interface is satisfied.
var _ Store = (*S3Store)(nil)
