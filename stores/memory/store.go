package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"memecanvas/core"
	"memecanvas/stores/catalog"
)

// memStore implements MemeStore, AssetStore and CatalogStore in memory. All
// state is owned by the instance and initialized in NewStore, so a store's
// lifetime is explicit rather than hanging off package globals.
type memStore struct {
	mu     sync.RWMutex
	memes  map[string]*core.Meme
	assets map[string]*core.Asset
	*catalog.Catalog
}

// NewStore creates a new in-memory store seeded with the template and
// sticker fixtures.
func NewStore() *memStore {
	return &memStore{
		memes:   make(map[string]*core.Meme),
		assets:  make(map[string]*core.Asset),
		Catalog: catalog.NewSeeded(),
	}
}

func copyMeme(m *core.Meme, withScene bool) *core.Meme {
	out := *m
	if !withScene {
		out.Scene = nil
	}
	return &out
}

// Create persists a new meme. Part of the MemeStore interface.
func (s *memStore) Create(ctx context.Context, meme *core.Meme) (*core.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyMeme(meme, true)
	stored.ID = ulid.Make().String()
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.memes[stored.ID] = stored

	logrus.WithFields(logrus.Fields{
		"meme_id":    stored.ID,
		"scene_size": len(stored.Scene),
	}).Info("Meme created successfully")
	return copyMeme(stored, true), nil
}

// Get returns a meme including its scene blob. Part of the MemeStore interface.
func (s *memStore) Get(ctx context.Context, id string) (*core.Meme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithField("meme_id", id)
	meme, ok := s.memes[id]
	if !ok {
		log.Warn("Meme with specified ID not found")
		return nil, fmt.Errorf("meme %s: %w", id, core.ErrNotFound)
	}
	log.Info("Meme retrieved successfully")
	return copyMeme(meme, true), nil
}

// List returns metadata for all memes matching the filter, without the scene
// blob. Part of the MemeStore interface.
func (s *memStore) List(ctx context.Context, filter core.MemeFilter) ([]*core.Meme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memes := make([]*core.Meme, 0, len(s.memes))
	for _, meme := range s.memes {
		if filter.PublicOnly && !meme.Public {
			continue
		}
		if filter.Tag != "" && !hasTag(meme.Tags, filter.Tag) {
			continue
		}
		memes = append(memes, copyMeme(meme, false))
	}

	logrus.Infof("Listed %d memes", len(memes))
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
func (s *memStore) Update(ctx context.Context, id string, update core.MemeUpdate) (*core.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithField("meme_id", id)
	meme, ok := s.memes[id]
	if !ok {
		log.Warn("Meme not found for update")
		return nil, fmt.Errorf("meme %s: %w", id, core.ErrNotFound)
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

	log.Info("Meme updated successfully")
	return copyMeme(meme, true), nil
}

// Delete removes a meme. Part of the MemeStore interface.
func (s *memStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.memes[id]; !ok {
		logrus.WithField("meme_id", id).Warn("Meme not found for deletion")
		return false, nil
	}
	delete(s.memes, id)
	logrus.WithField("meme_id", id).Info("Meme deleted successfully")
	return true, nil
}

// Put persists asset bytes plus metadata. Part of the AssetStore interface.
func (s *memStore) Put(ctx context.Context, asset *core.Asset) (*core.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *asset
	stored.ID = ulid.Make().String()
	stored.URL = "/api/v1/assets/" + stored.ID
	stored.CreatedAt = time.Now()
	s.assets[stored.ID] = &stored

	logrus.WithFields(logrus.Fields{
		"asset_id":  stored.ID,
		"byte_size": stored.ByteSize,
		"mime_type": stored.MimeType,
	}).Info("Asset stored successfully")
	out := stored
	return &out, nil
}

// GetAsset returns an asset including raw bytes. Part of the AssetStore interface.
func (s *memStore) GetAsset(ctx context.Context, id string) (*core.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, ok := s.assets[id]
	if !ok {
		logrus.WithField("asset_id", id).Warn("Asset with specified ID not found")
		return nil, fmt.Errorf("asset %s: %w", id, core.ErrNotFound)
	}
	out := *asset
	return &out, nil
}
