package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"BuggyFM/logger"
	"BuggyFM/model"
)

// BlobStore persists each user's library export under one fixed Redis key.
// The value is the opaque delimited-text blob; Redis never sees inside it.
type BlobStore struct {
	client *redis.Client
}

// NewBlobStore wraps an existing Redis client.
func NewBlobStore(client *redis.Client) *BlobStore {
	return &BlobStore{client: client}
}

func blobKey(userID int64) string {
	return fmt.Sprintf("buggyfm:appdata:%d", userID)
}

// Save encodes and stores the user's library. The blob has no TTL.
func (s *BlobStore) Save(ctx context.Context, userID int64, data model.AppData) error {
	blob := EncodeAppData(data)
	if err := s.client.Set(ctx, blobKey(userID), blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to save app data: %w", err)
	}
	logger.Debug("app data saved",
		logger.Int64("userId", userID),
		logger.Int("bytes", len(blob)))
	return nil
}

// Load reads and decodes the user's library. A user with no stored blob gets
// a zero AppData and found=false, which is not an error.
func (s *BlobStore) Load(ctx context.Context, userID int64) (model.AppData, bool, error) {
	blob, err := s.client.Get(ctx, blobKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return model.AppData{}, false, nil
	}
	if err != nil {
		return model.AppData{}, false, fmt.Errorf("failed to load app data: %w", err)
	}

	data, err := DecodeAppData(blob)
	if err != nil {
		return model.AppData{}, false, fmt.Errorf("stored app data unreadable: %w", err)
	}
	return data, true, nil
}

// Delete removes the user's stored library.
func (s *BlobStore) Delete(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, blobKey(userID)).Err()
}
