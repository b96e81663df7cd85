package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/fly-io/camctl/pkg/errors"
)

// Client archives downloaded captures in an S3 bucket.
type Client struct {
	s3Client *s3.Client
	bucket   string
}

// NewClient creates a new S3 client using the default credential chain.
// A non-empty endpoint selects an S3-compatible service with path-style
// addressing.
func NewClient(ctx context.Context, bucket, region, endpoint string) (*Client, error) {
	slog.Info("s3_client_init", "bucket", bucket, "region", region, "endpoint", endpoint)

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		slog.Error("aws_config_load_failed", "error", err)
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	slog.Info("s3_client_created", "bucket", bucket)

	return &Client{
		s3Client: s3Client,
		bucket:   bucket,
	}, nil
}

// ObjectKey is the archive key of the camera file folder/name under
// prefix.
func ObjectKey(prefix, folder, name string) string {
	return path.Join(strings.Trim(prefix, "/"), strings.TrimPrefix(path.Clean("/"+folder), "/"), name)
}

// FileDigest is the size and SHA-256 of a local file.
type FileDigest struct {
	SHA256 string
	Size   int64
}

// DigestFile hashes the file at localPath.
func DigestFile(localPath string) (*FileDigest, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer f.Close()
	return digest(f)
}

func digest(r io.Reader) (*FileDigest, error) {
	hash := sha256.New()
	size, err := io.Copy(hash, r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash file")
	}
	return &FileDigest{SHA256: hex.EncodeToString(hash.Sum(nil)), Size: size}, nil
}

// UploadResult contains upload metadata
type UploadResult struct {
	S3Key  string
	SHA256 string
	Size   int64
}

// Upload stores the file at localPath under s3Key. The object carries the
// file's SHA-256 in its metadata.
func (c *Client) Upload(ctx context.Context, s3Key, localPath string) (*UploadResult, error) {
	slog.Info("s3_upload_start", "bucket", c.bucket, "s3_key", s3Key, "local_path", localPath)

	f, err := os.Open(localPath)
	if err != nil {
		slog.Error("local_file_open_failed", "path", localPath, "error", err)
		return nil, errors.Wrap(err, "failed to open local file")
	}
	defer f.Close()

	d, err := digest(f)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "failed to rewind local file")
	}

	_, err = c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(s3Key),
		Body:          f,
		ContentLength: aws.Int64(d.Size),
		Metadata:      map[string]string{"sha256": d.SHA256},
	})
	if err != nil {
		slog.Error("s3_put_object_failed", "s3_key", s3Key, "error", err)
		return nil, errors.Wrap(err, "failed to upload file")
	}

	slog.Info("s3_upload_complete",
		"s3_key", s3Key,
		"size_kb", d.Size/1024,
		"sha256", d.SHA256[:16]+"...",
	)

	return &UploadResult{S3Key: s3Key, SHA256: d.SHA256, Size: d.Size}, nil
}

// ListObjects lists all objects in the bucket with a given prefix
func (c *Client) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	slog.Info("s3_list_start", "bucket", c.bucket, "prefix", prefix)

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(c.s3Client, input)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			slog.Error("s3_list_failed", "prefix", prefix, "error", err)
			return nil, errors.Wrap(err, "failed to list objects")
		}

		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}

	slog.Info("s3_list_complete", "prefix", prefix, "object_count", len(keys))

	return keys, nil
}

// Exists checks if an object exists in S3
func (c *Client) Exists(ctx context.Context, s3Key string) (bool, error) {
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(s3Key),
	})

	if err != nil {
		var notFound *types.NotFound
		if stderrors.As(err, &notFound) {
			slog.Info("s3_object_not_found", "s3_key", s3Key)
			return false, nil
		}
		slog.Error("s3_head_object_failed", "s3_key", s3Key, "error", err)
		return false, errors.Wrap(err, "failed to check object existence")
	}

	slog.Info("s3_object_exists", "s3_key", s3Key)
	return true, nil
}
