package zipremote

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	errs "github.com/matzehuels/pyboot/pkg/errors"
	"github.com/matzehuels/pyboot/pkg/httputil"
)

// Source provides random access to a remote archive.
type Source interface {
	// Size returns the total length in bytes.
	Size(ctx context.Context) (int64, error)
	// ReadRange returns exactly n bytes starting at off.
	ReadRange(ctx context.Context, off, n int64) ([]byte, error)
}

// HTTPSource reads an archive over HTTP with HEAD and range requests.
type HTTPSource struct {
	client *httputil.Client
	url    string
}

// NewHTTPSource returns a Source for url.
func NewHTTPSource(client *httputil.Client, url string) *HTTPSource {
	return &HTTPSource{client: client, url: url}
}

func (s *HTTPSource) Size(ctx context.Context) (int64, error) {
	return s.client.Size(ctx, s.url)
}

func (s *HTTPSource) ReadRange(ctx context.Context, off, n int64) ([]byte, error) {
	data, err := s.client.Range(ctx, s.url, off, n)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != n {
		return nil, errs.New(errs.ErrCodeInvalidArchive, "short read at offset %d: got %d of %d bytes", off, len(data), n)
	}
	return data, nil
}

// S3Config configures access to an S3-compatible object store.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// NewS3Client creates a minio client from cfg.
func NewS3Client(cfg S3Config) (*minio.Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "s3 endpoint is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	var creds *credentials.Credentials
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		creds = credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), "")
	} else {
		creds = credentials.NewEnvAWS()
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "init s3 client")
	}
	return client, nil
}

// S3Source reads an archive stored as an S3 object.
type S3Source struct {
	client *minio.Client
	bucket string
	key    string
}

// NewS3Source returns a Source for an s3://bucket/key URL.
func NewS3Source(client *minio.Client, rawURL string) (*S3Source, error) {
	bucket, key, err := ParseS3URL(rawURL)
	if err != nil {
		return nil, err
	}
	return &S3Source{client: client, bucket: bucket, key: key}, nil
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "s3" {
		return "", "", errs.New(errs.ErrCodeInvalidInput, "not an s3 URL: %q", rawURL)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", errs.New(errs.ErrCodeInvalidInput, "s3 URL needs bucket and key: %q", rawURL)
	}
	return bucket, key, nil
}

func (s *S3Source) Size(ctx context.Context) (int64, error) {
	info, err := s.client.StatObject(ctx, s.bucket, s.key, minio.StatObjectOptions{})
	if err != nil {
		return 0, s3Error(err, "stat s3://%s/%s", s.bucket, s.key)
	}
	if info.Size < 0 {
		return 0, errs.New(errs.ErrCodeSizeUnknown, "s3://%s/%s has no size", s.bucket, s.key)
	}
	return info.Size, nil
}

func (s *S3Source) ReadRange(ctx context.Context, off, n int64) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, off+n-1); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "range %d+%d", off, n)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, opts)
	if err != nil {
		return nil, s3Error(err, "get s3://%s/%s", s.bucket, s.key)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, n))
	if err != nil {
		return nil, s3Error(err, "read s3://%s/%s", s.bucket, s.key)
	}
	if int64(len(data)) != n {
		return nil, errs.New(errs.ErrCodeInvalidArchive, "short read at offset %d: got %d of %d bytes", off, len(data), n)
	}
	return data, nil
}

func s3Error(err error, format string, args ...any) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return errs.Wrap(errs.ErrCodeNotFound, err, format, args...)
	}
	return errs.Wrap(errs.ErrCodeNetwork, err, format, args...)
}

// Opener opens archives by URL, choosing a Source by scheme.
type Opener struct {
	HTTP    *httputil.Client
	S3      *minio.Client // optional; s3:// URLs fail without it
	Options Options
}

// Source returns the Source for rawURL.
func (o *Opener) Source(rawURL string) (Source, error) {
	switch {
	case strings.HasPrefix(rawURL, "s3://"):
		if o.S3 == nil {
			return nil, errs.New(errs.ErrCodeInvalidConfig, "no s3 client configured for %s", rawURL)
		}
		return NewS3Source(o.S3, rawURL)
	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
		client := o.HTTP
		if client == nil {
			client = httputil.NewClient(httputil.Options{})
		}
		return NewHTTPSource(client, rawURL), nil
	default:
		return nil, errs.New(errs.ErrCodeInvalidInput, "unsupported archive URL %q", rawURL)
	}
}

// Open opens the archive at rawURL.
func (o *Opener) Open(ctx context.Context, rawURL string) (*Archive, error) {
	src, err := o.Source(rawURL)
	if err != nil {
		return nil, err
	}
	return Open(ctx, src, o.Options)
}
