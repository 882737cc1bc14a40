package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/tripflow/internal/server/config"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ObjectPutter is the subset of *s3.Client used by S3Sink.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds a client for the configured bucket endpoint using
// static credentials. Path-style addressing keeps MinIO endpoints working.
func NewS3Client(ctx context.Context, c *sc.Config) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// S3Sink stores every event as one JSON object under
// <prefix>/YYYY/MM/DD/<event id>.json.
type S3Sink struct {
	client ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
}

func NewS3Sink(client ObjectPutter, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

func (s *S3Sink) Name() string { return "s3" }

func (s *S3Sink) key(e models.Event) string {
	at := e.OccurredAt
	if at.IsZero() {
		at = s.now()
	}
	return path.Join(s.prefix, at.UTC().Format("2006/01/02"), e.ID+".json")
}

func (s *S3Sink) Write(ctx context.Context, e models.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	key := s.key(e)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", s.bucket, key, err)
	}
	return nil
}
