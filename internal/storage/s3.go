package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 caps DeleteObjects at 1000 keys per request.
const maxDeleteBatch = 1000

type S3Options struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string

	// Defaults to <endpoint>/<bucket>.
	PublicBaseURL string
}

type S3Store struct { // implements ObjectStore
	client *s3.Client
	bucket string

	publicBaseURL string
}

func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")),
		config.WithRegion(opts.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing S3 client: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			// S3-compatible services (R2, Supabase, MinIO) want path-style addressing.
			o.UsePathStyle = true
		}
	})

	return newS3StoreWithClient(client, opts), nil
}

func newS3StoreWithClient(client *s3.Client, opts S3Options) *S3Store {
	publicBase := opts.PublicBaseURL
	if publicBase == "" {
		publicBase = joinURL(opts.Endpoint, opts.Bucket)
	}

	return &S3Store{
		client:        client,
		bucket:        opts.Bucket,
		publicBaseURL: publicBase,
	}
}

func (s *S3Store) Upload(ctx context.Context, path string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
		Body:   body,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("error uploading %s: %w", path, err)
	}

	storageLogger.Debug().Str("bucket", s.bucket).Str("path", path).Msg("Object uploaded")
	return nil
}

func (s *S3Store) Delete(ctx context.Context, paths []string) error {
	var errs []error

	for start := 0; start < len(paths); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(paths))

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, p := range paths[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(p)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("error deleting batch of %d: %w", len(objects), err))
			continue
		}

		for _, e := range out.Errors {
			errs = append(errs, fmt.Errorf("error deleting %s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
		}
	}

	return errors.Join(errs...)
}

func (s *S3Store) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return false, nil
	}
	return false, fmt.Errorf("error checking %s: %w", path, err)
}

func (s *S3Store) PublicURL(path string) string {
	return joinURL(s.publicBaseURL, path)
}

