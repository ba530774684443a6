package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store keeps container files as S3 objects. Opened files read through
// ranged GETs; created files accumulate in memory and upload as one object
// when synced or closed, since objects cannot be patched in place.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store wraps an existing S3 client. prefix is prepended to all names.
func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// NewS3StoreFromConfig builds the client from the default AWS configuration
// chain (environment, shared config, instance role).
func NewS3StoreFromConfig(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return NewS3Store(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func (s *S3Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open opens an existing object for ranged reading. Writes are rejected.
func (s *S3Store) Open(name string) (File, error) {
	key := s.key(name)
	head, err := s.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		var nsk *types.NoSuchKey
		if errors.As(err, &nf) || errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s3ReadFile{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// Create starts a new object. Content stays in memory until Sync or Close
// uploads it.
func (s *S3Store) Create(name string) (File, error) {
	return &s3WriteFile{
		uploader: manager.NewUploader(s.client),
		bucket:   s.bucket,
		key:      s.key(name),
	}, nil
}

// Unlink removes an object.
func (s *S3Store) Unlink(name string) error {
	_, err := s.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

type s3ReadFile struct {
	client *s3.Client
	bucket string
	key    string
	size   int64
}

func (f *s3ReadFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= f.size {
		return 0, io.EOF
	}
	end := off + int64(len(p)) - 1
	if end >= f.size {
		end = f.size - 1
	}

	resp, err := f.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.ReadFull(resp.Body, p)
	if err == io.ErrUnexpectedEOF && off+int64(n) == f.size {
		return n, io.EOF
	}
	return n, err
}

func (f *s3ReadFile) WriteAt(p []byte, off int64) (int, error) {
	return 0, fmt.Errorf("blobstore: object %q is read-only", f.key)
}

func (f *s3ReadFile) Size() (int64, error) { return f.size, nil }
func (f *s3ReadFile) Sync() error          { return nil }
func (f *s3ReadFile) Close() error         { return nil }

type s3WriteFile struct {
	uploader *manager.Uploader
	bucket   string
	key      string

	mu     sync.Mutex
	buf    []byte
	closed bool
}

func (f *s3WriteFile) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, io.ErrClosedPipe
	}
	if end := off + int64(len(p)); end > int64(len(f.buf)) {
		grown := make([]byte, end)
		copy(grown, f.buf)
		f.buf = grown
	}
	copy(f.buf[off:], p)
	return len(p), nil
}

func (f *s3WriteFile) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off >= int64(len(f.buf)) {
		return 0, io.EOF
	}
	n := copy(p, f.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *s3WriteFile) Size() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.buf)), nil
}

// Sync uploads the current content. Called again, it overwrites the object.
func (f *s3WriteFile) Sync() error {
	f.mu.Lock()
	body := append([]byte(nil), f.buf...)
	f.mu.Unlock()
	_, err := f.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key),
		Body:   bytes.NewReader(body),
	})
	return err
}

func (f *s3WriteFile) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()
	return f.Sync()
}
