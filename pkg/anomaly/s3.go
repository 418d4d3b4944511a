package anomaly

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client is the S3 operation the archiver uses.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver stores each anomaly as a JSON object under
// <prefix>/<yyyy-mm-dd>/<event id or anomaly id>.json.
type S3Archiver struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3Archiver builds an archiver. A nil client is created from cfg with
// the default AWS credential chain, or static keys when both are set.
func NewS3Archiver(ctx context.Context, cfg Config, client S3Client) (*S3Archiver, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("%w: S3Bucket is required", ErrInvalidConfig)
	}
	if client == nil {
		opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
		if cfg.S3AccessKeyID != "" && cfg.S3SecretKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, ""),
			))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			}
			o.UsePathStyle = cfg.S3ForcePathStyle
		})
	}
	return &S3Archiver{client: client, bucket: cfg.S3Bucket, prefix: cfg.S3Prefix}, nil
}

// Key returns the object key for a.
func (r *S3Archiver) Key(a Anomaly) string {
	name := a.EventID
	if name == "" {
		name = a.ID
	}
	return path.Join(r.prefix, a.OccurredAt.Format("2006-01-02"), name+".json")
}

// Report stores a as a JSON object.
func (r *S3Archiver) Report(ctx context.Context, a Anomaly) error {
	body, err := json.Marshal(a)
	if err != nil {
		return errors.Join(ErrArchiveFailed, err)
	}
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.Key(a)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	return classifyS3Error(err)
}

func classifyS3Error(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrArchiveFailed, err)
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return ErrBucketNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied":
			return errors.Join(ErrAccessDenied, err)
		case "NoSuchBucket":
			return ErrBucketNotFound
		default:
			return fmt.Errorf("%w (code: %s): %w", ErrArchiveFailed, apiErr.ErrorCode(), err)
		}
	}
	return errors.Join(ErrArchiveFailed, err)
}
