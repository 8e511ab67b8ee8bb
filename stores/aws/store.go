package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"memecanvas/core"
	"memecanvas/stores/catalog"
)

type s3Store struct {
	s3Client *s3.Client
	bucket   string
	*catalog.Catalog
}

// NewStore creates a new S3-based store. Memes live under memes/<id> as JSON
// records; assets under assets/<id> (raw bytes) plus assets/<id>.meta.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &s3Store{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
		Catalog:  catalog.NewSeeded(),
	}
}

// objectKey guards against ids that escape the key prefix.
func objectKey(prefix, id string) (string, error) {
	if id == "" || path.Base(id) != id || id == "." || id == ".." {
		return "", fmt.Errorf("invalid id %q: %w", id, core.ErrNotFound)
	}
	return path.Join(prefix, id), nil
}

func (s *s3Store) getJSON(ctx context.Context, key string, v any) error {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return core.ErrNotFound
		}
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *s3Store) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

// Create persists a new meme. Part of the MemeStore interface.
func (s *s3Store) Create(ctx context.Context, meme *core.Meme) (*core.Meme, error) {
	stored := *meme
	stored.ID = ulid.Make().String()
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	key, err := objectKey("memes", stored.ID)
	if err != nil {
		return nil, err
	}
	if err := s.putJSON(ctx, key, &stored); err != nil {
		return nil, fmt.Errorf("failed to save meme %s: %v", stored.ID, err)
	}

	logrus.WithField("meme_id", stored.ID).Info("Meme created successfully")
	return &stored, nil
}

// Get returns a meme by ID. Part of the MemeStore interface.
func (s *s3Store) Get(ctx context.Context, id string) (*core.Meme, error) {
	key, err := objectKey("memes", id)
	if err != nil {
		return nil, err
	}

	var meme core.Meme
	if err := s.getJSON(ctx, key, &meme); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("meme %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get meme %s: %v", id, err)
	}
	return &meme, nil
}

// List returns metadata for memes matching the filter. Part of the MemeStore
// interface.
func (s *s3Store) List(ctx context.Context, filter core.MemeFilter) ([]*core.Meme, error) {
	output, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String("memes/"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list memes: %v", err)
	}

	memes := make([]*core.Meme, 0, len(output.Contents))
	for _, object := range output.Contents {
		var meme core.Meme
		if err := s.getJSON(ctx, *object.Key, &meme); err != nil {
			logrus.WithFields(logrus.Fields{"key": *object.Key, "error": err}).Warn("Failed to load meme object, skipping")
			continue
		}
		if filter.PublicOnly && !meme.Public {
			continue
		}
		if filter.Tag != "" && !hasTag(meme.Tags, filter.Tag) {
			continue
		}
		meme.Scene = nil
		memes = append(memes, &meme)
	}
	return memes, nil
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

// Update applies a partial update. Part of the MemeStore interface.
func (s *s3Store) Update(ctx context.Context, id string, update core.MemeUpdate) (*core.Meme, error) {
	meme, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		meme.Title = *update.Title
	}
	if update.Scene != nil {
		meme.Scene = update.Scene
	}
	if update.Export != nil {
		meme.Export = update.Export
	}
	if update.Tags != nil {
		meme.Tags = update.Tags
	}
	if update.Public != nil {
		meme.Public = *update.Public
	}
	meme.UpdatedAt = time.Now()

	key, err := objectKey("memes", id)
	if err != nil {
		return nil, err
	}
	if err := s.putJSON(ctx, key, meme); err != nil {
		return nil, fmt.Errorf("failed to save meme %s: %v", id, err)
	}
	return meme, nil
}

// Delete removes a meme. Part of the MemeStore interface. S3 deletes are
// idempotent, so a missing record reports false without error.
func (s *s3Store) Delete(ctx context.Context, id string) (bool, error) {
	key, err := objectKey("memes", id)
	if err != nil {
		return false, nil
	}

	if _, err := s.Get(ctx, id); errors.Is(err, core.ErrNotFound) {
		return false, nil
	}

	_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete meme %s: %v", id, err)
	}
	return true, nil
}

// Put persists asset bytes plus a metadata object. Part of the AssetStore
// interface.
func (s *s3Store) Put(ctx context.Context, asset *core.Asset) (*core.Asset, error) {
	stored := *asset
	stored.ID = ulid.Make().String()
	stored.URL = "/api/v1/assets/" + stored.ID
	stored.CreatedAt = time.Now()

	key, err := objectKey("assets", stored.ID)
	if err != nil {
		return nil, err
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(stored.Data),
		ContentType: aws.String(stored.MimeType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload asset: %v", err)
	}

	meta := stored
	meta.Data = nil
	if err := s.putJSON(ctx, key+".meta", &meta); err != nil {
		return nil, fmt.Errorf("failed to save asset metadata: %v", err)
	}

	logrus.WithField("asset_id", stored.ID).Info("Asset stored successfully")
	return &stored, nil
}

// GetAsset returns an asset including raw bytes. Part of the AssetStore
// interface.
func (s *s3Store) GetAsset(ctx context.Context, id string) (*core.Asset, error) {
	key, err := objectKey("assets", id)
	if err != nil {
		return nil, err
	}

	var asset core.Asset
	if err := s.getJSON(ctx, key+".meta", &asset); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("asset %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset metadata %s: %v", id, err)
	}

	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("asset %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset %s: %v", id, err)
	}
	defer resp.Body.Close()

	asset.Data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset data: %v", err)
	}
	return &asset, nil
}
