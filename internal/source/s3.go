package source

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"pantry/internal/config"
)

// S3Store stages uploaded spreadsheets in a bucket so that in queue mode the
// worker that picks a job up, possibly on another instance, can fetch the
// file the API instance received.
type S3Store struct {
	s3        *s3.Client
	bucket    string
	keyPrefix string
}

func NewS3Store(cfg config.S3Config) (*S3Store, error) {
	credProvider := aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
		}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credProvider),
	)
	if err != nil {
		return nil, err
	}

	return &S3Store{
		s3:        s3.NewFromConfig(awsCfg),
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

func (s *S3Store) objectKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return path.Join(s.keyPrefix, key)
}

// Stage uploads a spreadsheet buffer under the given key.
func (s *S3Store) Stage(ctx context.Context, key string, file io.Reader) error {
	uploader := manager.NewUploader(s.s3)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   file,
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to stage import file")
		return err
	}

	log.Debug().Str("bucket", s.bucket).Str("key", key).Msg("Staged import file")
	return nil
}

// Delete removes a staged file once its job is finished with it.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	return err
}

// Object returns a Source reading the staged file back.
func (s *S3Store) Object(key, fileName string, maxBytes int64) Source {
	return &s3Object{store: s, key: key, fileName: fileName, maxBytes: maxBytes}
}

// TestConnection lists at most one key to verify bucket access.
func (s *S3Store) TestConnection() error {
	_, err := s.s3.ListObjectsV2(context.TODO(), &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(1),
	})
	return err
}

type s3Object struct {
	store    *S3Store
	key      string
	fileName string
	maxBytes int64
}

// Open implements Source.
func (o *s3Object) Open(ctx context.Context) ([]byte, string, error) {
	out, err := o.store.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.store.bucket),
		Key:    aws.String(o.store.objectKey(o.key)),
	})
	if err != nil {
		log.Error().Err(err).Str("key", o.key).Msg("Failed to fetch staged import file")
		return nil, "", fmt.Errorf("fetch s3 object %s: %w", o.key, err)
	}
	defer out.Body.Close()

	data, err := readCapped(out.Body, o.maxBytes)
	if err != nil {
		return nil, "", fmt.Errorf("fetch s3 object %s: %w", o.key, err)
	}

	return data, o.fileName, nil
}
