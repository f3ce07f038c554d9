// Package storage issues presigned S3 URLs for account avatars. Uploads go
// straight from the client to the bucket; the API only records the key.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iliyamo/travel-planner/internal/config"
)

// PresignTTL bounds how long an issued URL stays usable.
const PresignTTL = 15 * time.Minute

var (
	loadAWSConfig = awsconfig.LoadDefaultConfig

	presignPut = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGet = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

type AvatarStore struct {
	bucket  string
	presign *s3.PresignClient
}

// NewAvatarStore builds the presign client. Static credentials are used when
// an access key is configured, otherwise the default AWS chain applies.
func NewAvatarStore(ctx context.Context, cfg config.AvatarConfig) (*AvatarStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := loadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &AvatarStore{bucket: cfg.Bucket, presign: s3.NewPresignClient(client)}, nil
}

// AvatarKey is avatars/<accountID>/<random uuid>.
func AvatarKey(accountID string) string {
	return fmt.Sprintf("avatars/%s/%s", accountID, uuid.NewString())
}

// PresignUpload returns a fresh object key and a PUT URL for it.
func (s *AvatarStore) PresignUpload(ctx context.Context, accountID string) (string, string, error) {
	key := AvatarKey(accountID)
	req, err := presignPut(s.presign, ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignTTL))
	if err != nil {
		return "", "", fmt.Errorf("presign put: %w", err)
	}
	return key, req.URL, nil
}

// PresignDownload returns a GET URL for an existing key.
func (s *AvatarStore) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := presignGet(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignTTL))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
