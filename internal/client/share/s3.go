// Package share provides share sheets for the native transport. There is no
// OS share dialog on a terminal, so the file is published to an
// S3-compatible bucket and a time-limited link is handed back instead.
package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/mediaxfer/internal/netx"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ErrUnavailable is returned by share sheets that cannot share at all.
var ErrUnavailable = errors.New("sharing is not available")

const uploadLinkTTL = 15 * time.Minute

// DefaultLinkTTL is how long a shared link stays valid by default.
const DefaultLinkTTL = 24 * time.Hour

// S3Config points at the bucket shared files are published to.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
	LinkTTL   time.Duration
}

// S3ShareSheet uploads a file through a presigned PUT and returns a
// presigned GET link to it.
type S3ShareSheet struct {
	cfg    S3Config
	fs     afero.Fs
	client netx.Doer
	now    func() time.Time
}

func NewS3ShareSheet(cfg S3Config, fs afero.Fs, client netx.Doer) *S3ShareSheet {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = DefaultLinkTTL
	}
	return &S3ShareSheet{cfg: cfg, fs: fs, client: client, now: time.Now}
}

// IsAvailable reports whether a bucket is configured.
func (s *S3ShareSheet) IsAvailable() bool {
	return s.cfg.Bucket != ""
}

func (s *S3ShareSheet) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(s.cfg.Region)}
	if s.cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey, s.cfg.SecretKey, "",
		)))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// objectKey is <prefix>shared/<yyyy>/<mm>/<dd>/<uuid>/<file name>.
func (s *S3ShareSheet) objectKey(path string) string {
	d := s.now().UTC()
	return fmt.Sprintf("%sshared/%d/%02d/%02d/%s/%s", s.cfg.Prefix, d.Year(), d.Month(), d.Day(), uuid.New(), filepath.Base(path))
}

// Share publishes the file at path and returns the download link.
func (s *S3ShareSheet) Share(ctx context.Context, path string) (string, error) {
	if !s.IsAvailable() {
		return "", ErrUnavailable
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open shared file: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat shared file: %w", err)
	}

	ct := "application/octet-stream"
	if mt, err := mimetype.DetectReader(f); err == nil {
		ct = mt.String()
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind shared file: %w", err)
	}

	pc, err := s.presignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.cfg.Bucket
	key := s.objectKey(path)

	put, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(uploadLinkTTL))
	if err != nil {
		return "", err
	}

	if err := netx.UploadToPresignedURL(ctx, s.client, put.URL, f, fi.Size(), ct); err != nil {
		return "", err
	}

	get, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.cfg.LinkTTL))
	if err != nil {
		return "", err
	}

	return get.URL, nil
}

// Unavailable is the share sheet of a device without any share mechanism.
type Unavailable struct{}

func (Unavailable) IsAvailable() bool { return false }

func (Unavailable) Share(context.Context, string) (string, error) {
	return "", ErrUnavailable
}
