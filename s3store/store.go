// Package s3store provides the remote backend for uploaded images on any
// S3-compatible object store (AWS S3, MinIO, R2, LocalStack).
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/disintegration/imaging"
	"github.com/sagarc03/storefront"
)

// Config holds configuration for the remote store.
type Config struct {
	// Bucket receives every object.
	Bucket string
	// Region is the AWS region for the bucket.
	Region string
	// Endpoint is an optional custom endpoint (for MinIO, LocalStack, etc.).
	Endpoint string
	// UsePathStyle enables path-style addressing (required for MinIO).
	UsePathStyle bool
	// PublicURL is the base URL objects are served from. Defaults to the
	// virtual-hosted AWS URL, or endpoint/bucket with path-style addressing.
	PublicURL string
	// Prefix is prepended to every key, e.g. "clothing-store".
	Prefix string
	// MaxDimension bounds jpeg and png images; larger ones are scaled down
	// to fit. Zero disables the bound.
	MaxDimension int
	// MaxAttempts is passed to the SDK retryer.
	MaxAttempts int
	// Timeout bounds each store or delete call.
	Timeout time.Duration
}

// DefaultConfig returns the default remote store configuration.
func DefaultConfig() Config {
	return Config{
		Region:       "us-east-1",
		Prefix:       "clothing-store",
		MaxDimension: 1200,
		MaxAttempts:  3,
		Timeout:      30 * time.Second,
	}
}

// Store is the remote AssetStore.
type Store struct {
	client *s3.Client
	cfg    Config
	now    func() time.Time
}

// New loads AWS credentials from the default chain and creates a Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("new s3 store: bucket is required")
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, config.WithRetryMaxAttempts(cfg.MaxAttempts))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new s3 store: load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return NewWithClient(s3.NewFromConfig(awsCfg, s3Opts...), cfg), nil
}

// NewWithClient creates a Store with a pre-configured client.
func NewWithClient(client *s3.Client, cfg Config) *Store {
	return &Store{client: client, cfg: cfg, now: time.Now}
}

func (s *Store) Backend() storefront.Backend {
	return storefront.BackendRemote
}

// Store uploads file under <prefix>/<namespace>/<key><ext>. Only jpeg, png,
// gif and webp are accepted; jpeg and png images larger than MaxDimension on
// either side are scaled down to fit before upload.
func (s *Store) Store(ctx context.Context, file storefront.UploadFile, nc storefront.NamingContext) (storefront.AssetDescriptor, error) {
	contentType, ok := storefront.NormalizeImageType(file.ContentType)
	if !ok {
		return storefront.AssetDescriptor{}, fmt.Errorf("s3 store: %w: unsupported image type %s", storefront.ErrInvalidInput, file.ContentType)
	}

	rc, err := file.Open()
	if err != nil {
		return storefront.AssetDescriptor{}, fmt.Errorf("s3 store: open upload: %w", err)
	}
	data, err := io.ReadAll(rc)
	if closeErr := rc.Close(); closeErr != nil {
		slog.Warn("failed to close upload", "file", file.Filename, "err", closeErr)
	}
	if err != nil {
		return storefront.AssetDescriptor{}, fmt.Errorf("s3 store: read upload: %w", err)
	}

	body, err := s.bound(data, contentType)
	if err != nil {
		return storefront.AssetDescriptor{}, fmt.Errorf("s3 store: %w", err)
	}

	key := s.objectKey(nc, storefront.NewAssetKey(nc.Seed, s.now())+storefront.ExtensionFor(contentType, file.Filename))

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return storefront.AssetDescriptor{}, fmt.Errorf("s3 store: put %s: %w", key, err)
	}

	return storefront.AssetDescriptor{
		PublicID: key,
		URL:      s.objectURL(key),
		Storage:  storefront.BackendRemote,
	}, nil
}

// Delete removes the object named by d.PublicID. A missing object is not an
// error.
func (s *Store) Delete(ctx context.Context, d storefront.AssetDescriptor) error {
	if d.PublicID == "" {
		return nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(d.PublicID),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			slog.Info("remote object already deleted", "key", d.PublicID)
			return nil
		}
		return fmt.Errorf("s3 delete %s: %w", d.PublicID, err)
	}
	return nil
}

func (s *Store) bound(data []byte, contentType string) ([]byte, error) {
	if s.cfg.MaxDimension <= 0 {
		return data, nil
	}

	var format imaging.Format
	switch contentType {
	case "image/jpeg":
		format = imaging.JPEG
	case "image/png":
		format = imaging.PNG
	default:
		return data, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %w", storefront.ErrInvalidInput, err)
	}
	if cfg.Width <= s.cfg.MaxDimension && cfg.Height <= s.cfg.MaxDimension {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %w", storefront.ErrInvalidInput, err)
	}

	fitted := imaging.Fit(img, s.cfg.MaxDimension, s.cfg.MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, format, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Store) objectKey(nc storefront.NamingContext, name string) string {
	return path.Join(s.cfg.Prefix, nc.Namespace, name)
}

func (s *Store) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()

	if s.cfg.PublicURL != "" {
		return strings.TrimSuffix(s.cfg.PublicURL, "/") + "/" + escaped
	}
	if s.cfg.Endpoint != "" && s.cfg.UsePathStyle {
		return strings.TrimSuffix(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, escaped)
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}
