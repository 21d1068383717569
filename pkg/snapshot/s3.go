package snapshot

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/kinesis/internal/errors"
)

// S3API is the part of *s3.Client an S3Store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store keeps snapshots as objects under a key prefix.
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := snapshot.NewS3Store(s3.NewFromConfig(cfg), "my-bucket", "snapshots/")
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Store returns a store writing to bucket under prefix.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) key(name string) string {
	return s.prefix + name + ".html"
}

// Save implements Store.
func (s *S3Store) Save(ctx context.Context, snap Snapshot) (string, error) {
	if err := ValidateName(snap.Name); err != nil {
		return "", err
	}
	key := s.key(snap.Name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(snap.HTML),
		ContentType: aws.String("text/html; charset=utf-8"),
		Metadata: map[string]string{
			"app":        snap.App,
			"created-at": snap.CreatedAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", errors.New(errors.CodeSnapshotStore).WithDetail(key).Wrap(err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// Load implements Store.
func (s *S3Store) Load(ctx context.Context, name string) (*Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	key := s.key(name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if stderrors.As(err, &missing) {
			return nil, errors.New(errors.CodeSnapshotNotFound).WithDetail(name)
		}
		return nil, errors.New(errors.CodeSnapshotStore).WithDetail(key).Wrap(err)
	}
	defer out.Body.Close()
	html, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.New(errors.CodeSnapshotStore).WithDetail(key).Wrap(err)
	}
	snap := &Snapshot{Name: name, App: out.Metadata["app"], HTML: html}
	if at, err := time.Parse(time.RFC3339, out.Metadata["created-at"]); err == nil {
		snap.CreatedAt = at
	}
	return snap, nil
}
