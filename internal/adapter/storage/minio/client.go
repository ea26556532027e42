package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "github.com/GoArmGo/StudioApp/internal/config"
)

// Client реализует файловое хранилище поверх MinIO (S3-совместимого хранилища).
// Относительная ссылка "{userID}/{filename}" используется как ключ объекта,
// так что партиция пользователя — это префикс в бакете.
type Client struct {
	s3Client   *s3.Client
	uploader   *manager.Uploader
	bucketName string
	logger     *slog.Logger
}

// NewClient создает и инициализирует новый MinIO Client, используя переданную конфигурацию.
func NewClient(cfg *appconfig.Config, logger *slog.Logger) (*Client, error) {
	if cfg.MinioAccessKeyID == "" || cfg.MinioSecretAccessKey == "" || cfg.MinioBucketName == "" ||
		cfg.MinioEndpoint == "" || cfg.MinioRegion == "" {
		return nil, fmt.Errorf("для STORAGE_BACKEND=s3 должны быть заданы MINIO_ENDPOINT, MINIO_ACCESS_KEY_ID, MINIO_SECRET_ACCESS_KEY, MINIO_BUCKET_NAME, MINIO_REGION")
	}

	scheme := "http"
	if cfg.MinioUseSSL {
		scheme = "https"
	}
	endpointURL := fmt.Sprintf("%s://%s", scheme, cfg.MinioEndpoint)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.MinioRegion),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.MinioAccessKeyID, cfg.MinioSecretAccessKey, ""),
		),
		awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:    endpointURL,
					Source: aws.EndpointSourceCustom,
				}, nil
			})),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for MinIO: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	uploader := manager.NewUploader(s3Client)

	client := &Client{
		s3Client:   s3Client,
		uploader:   uploader,
		bucketName: cfg.MinioBucketName,
		logger:     logger,
	}

	if err := client.ensureBucket(cfg.MinioRegion); err != nil {
		return nil, err
	}

	return client, nil
}

// ensureBucket проверяет существование бакета и создает его при отсутствии.
func (c *Client) ensureBucket(region string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucketName),
	})
	if err == nil {
		c.logger.Info("bucket already exists", "bucket", c.bucketName)
		return nil
	}

	c.logger.Info("bucket not found, creating", "bucket", c.bucketName)

	_, err = c.s3Client.CreateBucket(context.TODO(), &s3.CreateBucketInput{
		Bucket: aws.String(c.bucketName),
		// Для MinIO требуется явное указание региона
		CreateBucketConfiguration: &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket '%s': %w", c.bucketName, err)
	}

	waiter := s3.NewBucketExistsWaiter(c.s3Client)
	if err := waiter.Wait(context.TODO(), &s3.HeadBucketInput{
		Bucket: aws.String(c.bucketName),
	}, 30*time.Second); err != nil {
		return fmt.Errorf("failed waiting for bucket '%s' to be created: %w", c.bucketName, err)
	}

	c.logger.Info("bucket created successfully", "bucket", c.bucketName)
	return nil
}

// SaveFile загружает файл в бакет MinIO через multipart uploader.
func (c *Client) SaveFile(ctx context.Context, ref string, reader io.Reader, contentType string) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(ref),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload file %s to bucket %s: %w", ref, c.bucketName, err)
	}

	c.logger.Debug("file uploaded to MinIO", "ref", ref, "bucket", c.bucketName)
	return nil
}

// OpenFile получает содержимое файла из MinIO.
func (c *Client) OpenFile(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	output, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(ref),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get file %s from bucket %s: %w", ref, c.bucketName, err)
	}

	contentType := aws.ToString(output.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return output.Body, contentType, nil
}

// DeleteFile удаляет файл из MinIO.
func (c *Client) DeleteFile(ctx context.Context, ref string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file %s from bucket %s: %w", ref, c.bucketName, err)
	}
	return nil
}

// FileExists проверяет наличие объекта через HeadObject.
func (c *Client) FileExists(ctx context.Context, ref string) (bool, error) {
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(ref),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file %s in bucket %s: %w", ref, c.bucketName, err)
	}
	return true, nil
}
