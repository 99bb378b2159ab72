package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Client mirrors processed images to a Cloudflare R2 bucket. Local
// disk stays the source of truth; the mirror is best effort and only
// active when the R2 env vars are configured.
type R2Client struct {
	S3     *s3.Client
	Bucket string
}

// NewR2Client returns (nil, nil) when R2 is not configured, which
// callers treat as "mirroring disabled".
func NewR2Client(ctx context.Context) (*R2Client, error) {
	bucket := os.Getenv("R2_BUCKET")
	accessKey := os.Getenv("R2_ACCESS_KEY_ID")
	secretKey := os.Getenv("R2_SECRET_ACCESS_KEY")
	endpoint := os.Getenv("R2_ENDPOINT") // https://<account-id>.r2.cloudflarestorage.com

	if bucket == "" && accessKey == "" && secretKey == "" && endpoint == "" {
		return nil, nil
	}
	if bucket == "" || accessKey == "" || secretKey == "" || endpoint == "" {
		return nil, fmt.Errorf("missing R2 env vars (R2_BUCKET, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_ENDPOINT)")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true // required for R2
	})

	return &R2Client{S3: client, Bucket: bucket}, nil
}

// MirrorImage uploads an already-processed local image so the CDN can
// serve it. objectName is "<resource>/<filename>".
func (r2 *R2Client) MirrorImage(ctx context.Context, resource, filename string) error {
	if r2 == nil {
		return nil
	}

	path := filepath.Join(uploadsDir(), resource, filename)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	_, err = r2.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r2.Bucket),
		Key:         aws.String(resource + "/" + filename),
		Body:        f,
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return fmt.Errorf("mirror %s: %w", filename, err)
	}
	return nil
}

// DeleteMirroredObjects removes stale objects after an image swap.
func (r2 *R2Client) DeleteMirroredObjects(ctx context.Context, objectNames []string) error {
	if r2 == nil {
		return nil
	}
	var firstErr error
	for _, obj := range objectNames {
		if obj == "" {
			continue
		}
		_, err := r2.S3.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(r2.Bucket),
			Key:    aws.String(obj),
		})
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete %s: %w", obj, err)
		}
	}
	return firstErr
}
