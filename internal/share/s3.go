package share

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/rizwanabrish101/shayari/internal/domain"
)

var loadDefaultAWSConfig = config.LoadDefaultConfig

// objectAPI is the subset of *s3.Client the publisher uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// presigner is the subset of *s3.PresignClient the publisher uses.
type presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Options configures an S3Publisher.
type S3Options struct {
	Region    string
	Endpoint  string // Non-empty for S3-compatible stores such as MinIO
	Bucket    string
	AccessKey string // Empty uses the default AWS credential chain
	SecretKey string
	// PresignTTL is how long share URLs stay valid.
	PresignTTL time.Duration
}

// S3Publisher stores images in a bucket and hands out presigned GET URLs.
type S3Publisher struct {
	client  objectAPI
	presign presigner
	bucket  string
	ttl     time.Duration
	now     func() time.Time
}

// NewS3Publisher builds an S3 client from opts.
func NewS3Publisher(ctx context.Context, opts S3Options) (*S3Publisher, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Publisher(client, s3.NewPresignClient(client), opts.Bucket, opts.PresignTTL), nil
}

func newS3Publisher(client objectAPI, presign presigner, bucket string, ttl time.Duration) *S3Publisher {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3Publisher{
		client:  client,
		presign: presign,
		bucket:  bucket,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Backend implements Publisher.
func (p *S3Publisher) Backend() string { return "s3" }

// objectKey returns shares/YYYY/MM/<uuid>.png.
func (p *S3Publisher) objectKey() string {
	d := p.now().UTC()
	return fmt.Sprintf("shares/%04d/%02d/%s.png", d.Year(), int(d.Month()), uuid.New())
}

// Publish implements Publisher. Object keys are random, not the share id, so
// ids cannot be enumerated from bucket listings.
func (p *S3Publisher) Publish(ctx context.Context, _ string, data []byte) (*Published, error) {
	key := p.objectKey()

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("image/png"),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	url, err := p.presignKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return &Published{Key: key, URL: url}, nil
}

// URL implements Publisher with a freshly presigned GET URL.
func (p *S3Publisher) URL(ctx context.Context, sh *domain.Share) (string, error) {
	return p.presignKey(ctx, sh.StorageKey)
}

func (p *S3Publisher) presignKey(ctx context.Context, key string) (string, error) {
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

// Open implements Publisher.
func (p *S3Publisher) Open(ctx context.Context, key string) ([]byte, error) {
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// Delete implements Publisher. S3 deletes are idempotent.
func (p *S3Publisher) Delete(ctx context.Context, key string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
