package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscredentials "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/beevik/etree"

	"github.com/nao1215/xmlmerge/internal/config"
	"github.com/nao1215/xmlmerge/internal/model"
)

// defaultS3Region is used when the destination does not name a region.
const defaultS3Region = "us-east-1"

// authErrorCodes are S3 error codes that mean the credentials were rejected.
var authErrorCodes = map[string]bool{
	"InvalidAccessKeyId":    true,
	"SignatureDoesNotMatch": true,
	"AccessDenied":          true,
	"InvalidToken":          true,
	"ExpiredToken":          true,
}

// S3Publisher uploads the catalog to an S3-compatible bucket with
// path-style addressing, so MinIO and similar servers work unchanged.
//
// The destination maps as: Host is the endpoint, User the access key,
// Password the secret key, Directory the key prefix.
type S3Publisher struct {
	// httpClient carries the requests, possibly through a proxy.
	httpClient *http.Client

	// timeout bounds the upload.
	timeout time.Duration

	logger *slog.Logger
}

// S3Option configures an S3Publisher.
type S3Option func(*S3Publisher)

// WithS3Dialer routes requests through dialer.
func WithS3Dialer(dialer ContextDialer) S3Option {
	return func(p *S3Publisher) {
		if dialer != nil {
			p.httpClient = &http.Client{
				Transport: &http.Transport{
					DialContext:         dialer.DialContext,
					TLSHandshakeTimeout: 10 * time.Second,
				},
			}
		}
	}
}

// WithS3Timeout sets the upload timeout.
func WithS3Timeout(timeout time.Duration) S3Option {
	return func(p *S3Publisher) {
		p.timeout = timeout
	}
}

// WithS3Logger sets a custom logger.
func WithS3Logger(logger *slog.Logger) S3Option {
	return func(p *S3Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewS3Publisher creates an S3Publisher.
func NewS3Publisher(opts ...S3Option) *S3Publisher {
	p := &S3Publisher{
		httpClient: &http.Client{},
		timeout:    config.DefaultPublishTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish implements Publisher.
func (p *S3Publisher) Publish(ctx context.Context, doc *etree.Document, dest config.Destination, filename string) (*model.PublishResult, error) {
	pl, err := prepare(doc, dest)
	if err != nil {
		return nil, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	client, err := p.client(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	key := objectKey(dest.Directory, filename)
	p.logger.Info("uploading catalog", "endpoint", dest.Host, "bucket", dest.Bucket, "storage_key", key)

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(dest.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(pl.data),
		ContentLength: aws.Int64(int64(len(pl.data))),
		ContentType:   aws.String("application/xml"),
	})
	if err != nil {
		return nil, classifyS3Error(err)
	}

	result := &model.PublishResult{
		Kind:     string(config.DestinationS3),
		Location: "s3://" + dest.Bucket + "/" + key,
		Filename: filename,
		Bytes:    int64(len(pl.data)),
		Digest:   pl.digest,
	}
	p.logger.Info("catalog uploaded", "location", result.Location, "bytes", result.Bytes)
	return result, nil
}

// client builds an S3 client for dest with static credentials.
func (p *S3Publisher) client(ctx context.Context, dest config.Destination) (*s3.Client, error) {
	region := dest.Region
	if region == "" {
		region = defaultS3Region
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithHTTPClient(p.httpClient),
		awsconfig.WithRequestChecksumCalculation(aws.RequestChecksumCalculationWhenRequired),
		awsconfig.WithCredentialsProvider(awscredentials.NewStaticCredentialsProvider(
			dest.User,
			dest.Password,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := s3Endpoint(dest.Host)
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(endpoint)
	}), nil
}

// s3Endpoint adds https:// to endpoints given without a scheme.
func s3Endpoint(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

// objectKey joins the key prefix and the file name without a leading slash.
func objectKey(prefix, filename string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return filename
	}
	return path.Join(prefix, filename)
}

// classifyS3Error maps SDK errors onto publish errors.
func classifyS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if authErrorCodes[apiErr.ErrorCode()] {
			return fmt.Errorf("%w: %w", ErrAuthentication, err)
		}
		return fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	return fmt.Errorf("%w: %w", ErrConnect, err)
}
