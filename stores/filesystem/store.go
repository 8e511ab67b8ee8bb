package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"memecanvas/core"
	"memecanvas/stores/catalog"
)

type fsStore struct {
	basePath string
	*catalog.Catalog
}

// NewStore creates a new filesystem-based store. Memes live under
// basePath/memes as one JSON record per file; assets under basePath/assets
// as raw bytes plus a sidecar metadata file.
func NewStore(basePath string) *fsStore {
	for _, dir := range []string{basePath, filepath.Join(basePath, "memes"), filepath.Join(basePath, "assets")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("failed to create store directory: %v", err)
		}
	}
	return &fsStore{basePath: basePath, Catalog: catalog.NewSeeded()}
}

// memePath guards against ids that escape the store directory.
func (s *fsStore) memePath(id string) (string, error) {
	if id == "" || filepath.Base(id) != id {
		return "", fmt.Errorf("meme id %q: %w", id, core.ErrNotFound)
	}
	return filepath.Join(s.basePath, "memes", id+".json"), nil
}

func (s *fsStore) assetPath(id string) (string, error) {
	if id == "" || filepath.Base(id) != id {
		return "", fmt.Errorf("asset id %q: %w", id, core.ErrNotFound)
	}
	return filepath.Join(s.basePath, "assets", id), nil
}

func (s *fsStore) writeMeme(meme *core.Meme) error {
	path, err := s.memePath(meme.ID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(meme)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *fsStore) readMeme(id string) (*core.Meme, error) {
	path, err := s.memePath(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("meme %s: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	var meme core.Meme
	if err := json.Unmarshal(data, &meme); err != nil {
		return nil, err
	}
	return &meme, nil
}

// Create persists a new meme. Part of the MemeStore interface.
func (s *fsStore) Create(ctx context.Context, meme *core.Meme) (*core.Meme, error) {
	stored := *meme
	stored.ID = ulid.Make().String()
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	log := logrus.WithFields(logrus.Fields{"meme_id": stored.ID, "scene_size": len(stored.Scene)})
	if err := s.writeMeme(&stored); err != nil {
		log.WithError(err).Error("Failed to write meme file")
		return nil, err
	}
	log.Info("Meme created successfully")
	return &stored, nil
}

// Get returns a meme by ID. Part of the MemeStore interface.
func (s *fsStore) Get(ctx context.Context, id string) (*core.Meme, error) {
	log := logrus.WithField("meme_id", id)
	meme, err := s.readMeme(id)
	if err != nil {
		log.WithError(err).Warn("Failed to read meme")
		return nil, err
	}
	log.Info("Meme retrieved successfully")
	return meme, nil
}

// List returns metadata for memes matching the filter. Part of the MemeStore
// interface.
func (s *fsStore) List(ctx context.Context, filter core.MemeFilter) ([]*core.Meme, error) {
	dir := filepath.Join(s.basePath, "memes")
	log := logrus.WithField("path", dir)

	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*core.Meme{}, nil
		}
		log.WithError(err).Error("Failed to read meme directory")
		return nil, err
	}

	memes := make([]*core.Meme, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read meme file %s, skipping", file.Name())
			continue
		}
		var meme core.Meme
		if err := json.Unmarshal(data, &meme); err != nil {
			log.WithError(err).Warnf("Failed to unmarshal meme file %s, skipping", file.Name())
			continue
		}
		if filter.PublicOnly && !meme.Public {
			continue
		}
		if filter.Tag != "" && !hasTag(meme.Tags, filter.Tag) {
			continue
		}
		// List views stay light without the scene blob.
		meme.Scene = nil
		memes = append(memes, &meme)
	}

	log.Infof("Listed %d memes", len(memes))
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
func (s *fsStore) Update(ctx context.Context, id string, update core.MemeUpdate) (*core.Meme, error) {
	log := logrus.WithField("meme_id", id)
	meme, err := s.readMeme(id)
	if err != nil {
		log.WithError(err).Warn("Meme not found for update")
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

	if err := s.writeMeme(meme); err != nil {
		log.WithError(err).Error("Failed to write updated meme")
		return nil, err
	}
	log.Info("Meme updated successfully")
	return meme, nil
}

// Delete removes a meme. Part of the MemeStore interface.
func (s *fsStore) Delete(ctx context.Context, id string) (bool, error) {
	path, err := s.memePath(id)
	if err != nil {
		return false, nil
	}
	log := logrus.WithField("meme_id", id)

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			log.Warn("Meme file not found for deletion")
			return false, nil
		}
		log.WithError(err).Error("Failed to delete meme file")
		return false, err
	}
	log.Info("Meme deleted successfully")
	return true, nil
}

// Put persists asset bytes plus a metadata sidecar. Part of the AssetStore
// interface.
func (s *fsStore) Put(ctx context.Context, asset *core.Asset) (*core.Asset, error) {
	stored := *asset
	stored.ID = ulid.Make().String()
	stored.URL = "/api/v1/assets/" + stored.ID
	stored.CreatedAt = time.Now()

	path, err := s.assetPath(stored.ID)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"asset_id": stored.ID, "byte_size": stored.ByteSize})

	if err := os.WriteFile(path, stored.Data, 0644); err != nil {
		log.WithError(err).Error("Failed to write asset bytes")
		return nil, err
	}

	meta := stored
	meta.Data = nil
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path+".json", metaBytes, 0644); err != nil {
		log.WithError(err).Error("Failed to write asset metadata")
		return nil, err
	}

	log.Info("Asset stored successfully")
	return &stored, nil
}

// GetAsset returns an asset including raw bytes. Part of the AssetStore
// interface.
func (s *fsStore) GetAsset(ctx context.Context, id string) (*core.Asset, error) {
	path, err := s.assetPath(id)
	if err != nil {
		return nil, err
	}
	log := logrus.WithField("asset_id", id)

	metaBytes, err := os.ReadFile(path + ".json")
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Asset metadata not found")
			return nil, fmt.Errorf("asset %s: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	var asset core.Asset
	if err := json.Unmarshal(metaBytes, &asset); err != nil {
		return nil, err
	}

	asset.Data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("asset %s: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	return &asset, nil
}
