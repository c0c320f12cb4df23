package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"

	"minpdf/config"
)

// S3 stores objects in S3 buckets. The bucket comes from each reference.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
}

// NewS3 creates an S3 backend from the default AWS configuration chain,
// overridden by whatever cfg sets.
func NewS3(ctx context.Context, cfg config.StorageConfig) (*S3, error) {
	var opts []func(*awscfg.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awscfg.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsConf, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &S3{client: cli, uploader: manager.NewUploader(cli)}, nil
}

// parseS3 splits s3://bucket/key.
func parseS3(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("not an s3 reference: %q", ref)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", ref)
	}
	return bucket, key, nil
}

func (s *S3) Get(ctx context.Context, ref string) ([]byte, error) {
	bucket, key, err := parseS3(ref)
	if err != nil {
		return nil, err
	}
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%s: %w", ref, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object: %w", err)
	}
	log.Debug().Str("bucket", bucket).Str("key", key).Int("size", len(data)).Msg("downloaded object from S3")
	return data, nil
}

// Put uploads data. S3 makes the object visible only once the upload completes.
func (s *S3) Put(ctx context.Context, ref string, data []byte) error {
	bucket, key, err := parseS3(ref)
	if err != nil {
		return err
	}
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimetype.Detect(data).String()),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	log.Info().Str("bucket", bucket).Str("key", key).Int("size", len(data)).Msg("uploaded object to S3")
	return nil
}

func (s *S3) Exists(ctx context.Context, ref string) (bool, error) {
	bucket, key, err := parseS3(ref)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, fmt.Errorf("head object failed: %w", err)
}

func (s *S3) List(ctx context.Context, dir, prefix, ext string) ([]string, error) {
	bucket, keyDir, err := parseS3(strings.TrimSuffix(dir, "/"))
	if err != nil {
		return nil, err
	}
	if keyDir != "" {
		keyDir += "/"
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(keyDir + prefix),
		Delimiter: aws.String("/"),
	})

	var refs []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects failed: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || !strings.HasSuffix(*obj.Key, ext) {
				continue
			}
			refs = append(refs, s3Scheme+bucket+"/"+*obj.Key)
		}
	}
	return refs, nil
}
