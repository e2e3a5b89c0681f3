package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const archivePrefix = "resumes"

// Archive keeps a copy of each uploaded resume and returns its key.
type Archive interface {
	Save(ctx context.Context, fileName, contentType string, data []byte) (string, error)
}

func newArchiveKey(fileName string) string {
	return path.Join(archivePrefix, uuid.NewString()+strings.ToLower(filepath.Ext(fileName)))
}

type localArchive struct {
	root string
}

func NewLocalArchive(root string) (Archive, error) {
	if err := os.MkdirAll(filepath.Join(root, archivePrefix), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &localArchive{root: root}, nil
}

func (a *localArchive) Save(_ context.Context, fileName, _ string, data []byte) (string, error) {
	key := newArchiveKey(fileName)
	if err := os.WriteFile(filepath.Join(a.root, filepath.FromSlash(key)), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return key, nil
}

type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccountID string
	AccessKey string
	SecretKey string
}

type s3Archive struct {
	client *s3.Client
	bucket string
}

// NewS3Archive targets AWS S3 or any S3-compatible store. A Cloudflare R2
// endpoint is derived from AccountID when Endpoint is empty.
func NewS3Archive(ctx context.Context, opts S3Options) (Archive, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	endpoint := opts.Endpoint
	if endpoint == "" && opts.AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", opts.AccountID)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = opts.Endpoint != ""
		}
	})

	return &s3Archive{client: client, bucket: opts.Bucket}, nil
}

func (a *s3Archive) Save(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	key := newArchiveKey(fileName)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s to bucket %s: %w", key, a.bucket, err)
	}
	return key, nil
}
