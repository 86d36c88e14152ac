// AngelaMos | 2026
// s3.go

package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/carterperez-dev/research-portal/internal/config"
	"github.com/carterperez-dev/research-portal/internal/core"
)

// Client wraps an S3-compatible bucket. A nil *Client is valid: it resolves
// no public URLs and refuses uploads.
type Client struct {
	s3            *s3.S3
	defaultBucket string
	publicBuckets map[string]struct{}
	baseURL       string
}

func NewClient(cfg config.StorageConfig) (*Client, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	if cfg.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)
	}

	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		awsConfig.DisableSSL = aws.Bool(!cfg.UseSSL)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	public := make(map[string]struct{}, len(cfg.PublicBuckets))
	for _, b := range cfg.PublicBuckets {
		public[b] = struct{}{}
	}

	return &Client{
		s3:            s3.New(sess),
		defaultBucket: cfg.DefaultBucket,
		publicBuckets: public,
		baseURL:       publicBaseURL(cfg),
	}, nil
}

func publicBaseURL(cfg config.StorageConfig) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}

	if cfg.Endpoint != "" {
		host := strings.TrimPrefix(cfg.Endpoint, "http://")
		host = strings.TrimPrefix(host, "https://")
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		return fmt.Sprintf("%s://%s", scheme, strings.TrimRight(host, "/"))
	}

	return ""
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

// PublicURL returns the anonymous download URL for bucket/path, or nil when
// the bucket is not publicly readable.
func (c *Client) PublicURL(bucket, path string) *string {
	if c == nil || bucket == "" || path == "" {
		return nil
	}
	if _, ok := c.publicBuckets[bucket]; !ok {
		return nil
	}

	key := escapeKey(strings.TrimPrefix(path, "/"))

	var u string
	if c.baseURL != "" {
		u = fmt.Sprintf("%s/%s/%s", c.baseURL, bucket, key)
	} else {
		region := aws.StringValue(c.s3.Config.Region)
		if region == "" {
			region = "us-east-1"
		}
		u = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
	}

	return &u
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func (c *Client) Upload(
	ctx context.Context,
	bucket, key string,
	body io.ReadSeeker,
	contentType string,
) error {
	if c == nil {
		return fmt.Errorf("upload %s: %w", key, core.ErrStorageAbsent)
	}

	_, err := c.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	return nil
}

func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if c == nil {
		return fmt.Errorf("delete %s: %w", key, core.ErrStorageAbsent)
	}

	_, err := c.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return core.ErrStorageAbsent
	}

	_, err := c.s3.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.defaultBucket),
	})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", c.defaultBucket, err)
	}

	return nil
}
