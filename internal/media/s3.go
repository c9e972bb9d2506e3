package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store keeps media in an S3-compatible bucket. Objects are stored under
// {prefix}/{key}.
type S3Store struct {
	client    *s3.Client
	bucket    string
	prefix    string
	publicURL string
}

// NewS3Client loads AWS configuration for region. A non-empty endpoint
// switches to path-style addressing for MinIO and LocalStack.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var opts []func(*s3.Options)
	if endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(cfg, opts...), nil
}

// NewS3Store creates a bucket-backed store. publicURL is the base used for
// asset URLs; when empty the virtual-hosted bucket URL is used.
func NewS3Store(client *s3.Client, bucket, region, prefix, publicURL string) *S3Store {
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Store{
		client:    client,
		bucket:    bucket,
		prefix:    strings.Trim(prefix, "/"),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// objectKey returns the full S3 key for a store key
func (s *S3Store) objectKey(key string) string {
	return path.Join(s.prefix, key)
}

// Save uploads srcPath with a conditional put so an existing object is
// never replaced; a taken name moves on to the next "-N" variant.
func (s *S3Store) Save(ctx context.Context, srcPath, dir, name, contentType string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	for i := 0; i < maxNameAttempts; i++ {
		key := path.Join(dir, numberedName(name, i))

		if _, err := src.Seek(0, 0); err != nil {
			return "", fmt.Errorf("failed to rewind source file: %w", err)
		}

		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.objectKey(key)),
			Body:        src,
			ContentType: aws.String(contentType),
			IfNoneMatch: aws.String("*"),
		})
		if err == nil {
			return key, nil
		}
		if isPreconditionFailed(err) {
			continue
		}
		return "", fmt.Errorf("failed to put object %q: %w", key, err)
	}

	return "", ErrNameExhausted
}

// URL returns the public URL for key
func (s *S3Store) URL(key string) string {
	return s.publicURL + "/" + s.objectKey(key)
}

// LocalPath is always empty for bucket storage
func (s *S3Store) LocalPath(string) string {
	return ""
}

func isPreconditionFailed(err error) bool {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == http.StatusPreconditionFailed ||
			respErr.HTTPStatusCode() == http.StatusConflict
	}
	return false
}
