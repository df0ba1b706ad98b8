package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"gait-backend/internal/errs"
)

// S3Store keeps video assets in an S3-compatible bucket. Downloads still go
// over plain HTTP because input videos are referenced by URL, which may
// point anywhere.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
	tempDir   string
	http      *http.Client
}

// NewS3Store creates an S3-backed asset store. If endpoint is non-empty,
// path-style addressing is enabled (for MinIO and similar). publicURL is
// the base under which uploaded objects are reachable.
func NewS3Store(ctx context.Context, bucket, region, endpoint, publicURL, tempDir string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Store{
		client:    s3.NewFromConfig(cfg, s3opts...),
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		tempDir:   tempDir,
		http:      http.DefaultClient,
	}, nil
}

func (s *S3Store) Download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &errs.TransportError{Op: "video download", Err: err}
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return "", &errs.TransportError{Op: "video download", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &errs.TransportError{Op: "video download", Status: resp.StatusCode}
	}

	path := filepath.Join(s.tempDir, uuid.NewString()+".mp4")
	f, err := os.Create(path)
	if err != nil {
		return "", &errs.TransportError{Op: "video download", Err: err}
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", &errs.TransportError{Op: "video download", Err: err}
	}
	return path, nil
}

// Upload puts the local file into the bucket under gait-sessions/ and
// returns its public URL.
func (s *S3Store) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", &errs.TransportError{Op: "video upload", Err: err}
	}
	defer f.Close()

	key := "gait-sessions/" + filepath.Base(localPath)
	contentType := "video/mp4"
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: &contentType,
	})
	if err != nil {
		return "", &errs.TransportError{Op: "video upload", Err: err}
	}
	return s.publicURL + "/" + key, nil
}
