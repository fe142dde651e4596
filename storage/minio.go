package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"BuggyFM/config"
	"BuggyFM/logger"
)

var (
	minioClient *minio.Client
	minioBucket string
)

// InitMinio connects to the object store and ensures the bucket exists.
// Covers and locally imported audio files live here.
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %q: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return fmt.Errorf("failed to create bucket %q: %w", cfg.MinioBucket, err)
		}
		logger.Info("created object storage bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	minioBucket = cfg.MinioBucket
	logger.Info("connected to object storage", logger.String("endpoint", cfg.MinioEndpoint))
	return nil
}

// GetMinioClient returns the shared client instance.
func GetMinioClient() *minio.Client {
	return minioClient
}

// UploadCover stores a playlist cover image and returns its object name.
// The original filename only contributes its extension.
func UploadCover(ctx context.Context, r io.Reader, size int64, filename, contentType string) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("object storage not initialized")
	}
	objectName := fmt.Sprintf("covers/%s%s", uuid.NewString(), path.Ext(filename))
	_, err := minioClient.PutObject(ctx, minioBucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload cover: %w", err)
	}
	return objectName, nil
}

// UploadAudio stores an imported local audio file under its track ID.
func UploadAudio(ctx context.Context, trackID string, r io.Reader, size int64, contentType string) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("object storage not initialized")
	}
	objectName := fmt.Sprintf("audio/%s", trackID)
	_, err := minioClient.PutObject(ctx, minioBucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload audio: %w", err)
	}
	return objectName, nil
}

// PresignedURL returns a time-limited GET URL for a stored object, so the
// player can stream covers and local audio without exposing credentials.
func PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("object storage not initialized")
	}
	u, err := minioClient.PresignedGetObject(ctx, minioBucket, objectName, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %q: %w", objectName, err)
	}
	return u.String(), nil
}

// RemoveObject deletes a stored object. Missing objects are not an error.
func RemoveObject(ctx context.Context, objectName string) error {
	if minioClient == nil {
		return fmt.Errorf("object storage not initialized")
	}
	return minioClient.RemoveObject(ctx, minioBucket, objectName, minio.RemoveObjectOptions{})
}
