package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"memecanvas/core"
	"memecanvas/stores/catalog"
)

type sqliteStore struct {
	db *sql.DB
	*catalog.Catalog
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	memesTable := `CREATE TABLE IF NOT EXISTS memes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		scene BLOB,
		export TEXT,
		tags TEXT,
		public INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err = db.Exec(memesTable); err != nil {
		log.Fatalf("failed to create memes table: %v", err)
	}

	assetsTable := `CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		format TEXT NOT NULL,
		byte_size INTEGER NOT NULL,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);`
	if _, err = db.Exec(assetsTable); err != nil {
		log.Fatalf("failed to create assets table: %v", err)
	}

	return &sqliteStore{db: db, Catalog: catalog.NewSeeded()}
}

func marshalJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func scanMeme(scan func(dest ...any) error, withScene bool) (*core.Meme, error) {
	var meme core.Meme
	var exportJSON, tagsJSON sql.NullString
	var public int
	var createdAt, updatedAt int64

	dest := []any{&meme.ID, &meme.Title, &exportJSON, &tagsJSON, &public, &createdAt, &updatedAt}
	if withScene {
		dest = append(dest, &meme.Scene)
	}
	if err := scan(dest...); err != nil {
		return nil, err
	}

	if exportJSON.Valid && exportJSON.String != "" {
		var meta core.ExportMeta
		if err := json.Unmarshal([]byte(exportJSON.String), &meta); err == nil {
			meme.Export = &meta
		}
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		_ = json.Unmarshal([]byte(tagsJSON.String), &meme.Tags)
	}
	meme.Public = public != 0
	meme.CreatedAt = time.UnixMilli(createdAt)
	meme.UpdatedAt = time.UnixMilli(updatedAt)
	return &meme, nil
}

// Create persists a new meme. Part of the MemeStore interface.
func (s *sqliteStore) Create(ctx context.Context, meme *core.Meme) (*core.Meme, error) {
	stored := *meme
	stored.ID = ulid.Make().String()
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	log := logrus.WithFields(logrus.Fields{"meme_id": stored.ID, "scene_size": len(stored.Scene)})

	exportJSON, err := marshalJSON(stored.Export)
	if err != nil {
		return nil, err
	}
	tagsJSON, err := marshalJSON(stored.Tags)
	if err != nil {
		return nil, err
	}

	public := 0
	if stored.Public {
		public = 1
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO memes (id, title, scene, export, tags, public, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		stored.ID, stored.Title, stored.Scene, exportJSON, tagsJSON, public, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		log.WithError(err).Error("Failed to create meme")
		return nil, err
	}

	log.Info("Meme created successfully")
	return &stored, nil
}

// Get returns a meme by ID including the scene blob. Part of the MemeStore
// interface.
func (s *sqliteStore) Get(ctx context.Context, id string) (*core.Meme, error) {
	log := logrus.WithField("meme_id", id)

	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, export, tags, public, created_at, updated_at, scene FROM memes WHERE id = ?", id)
	meme, err := scanMeme(row.Scan, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Meme with specified ID not found")
			return nil, fmt.Errorf("meme %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve meme")
		return nil, err
	}

	log.Info("Meme retrieved successfully")
	return meme, nil
}

// List returns metadata for memes matching the filter. Part of the MemeStore
// interface.
func (s *sqliteStore) List(ctx context.Context, filter core.MemeFilter) ([]*core.Meme, error) {
	query := "SELECT id, title, export, tags, public, created_at, updated_at FROM memes"
	var args []any
	if filter.PublicOnly {
		query += " WHERE public = 1"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logrus.WithError(err).Error("Failed to list memes")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("Failed to close meme rows")
		}
	}()

	memes := []*core.Meme{}
	for rows.Next() {
		meme, err := scanMeme(rows.Scan, false)
		if err != nil {
			logrus.WithError(err).Error("Failed to scan meme")
			continue
		}
		// Tag filtering happens here; tags are stored as a JSON array, not a
		// queryable column.
		if filter.Tag != "" && !hasTag(meme.Tags, filter.Tag) {
			continue
		}
		memes = append(memes, meme)
	}

	logrus.Infof("Listed %d memes", len(memes))
	return memes, rows.Err()
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
func (s *sqliteStore) Update(ctx context.Context, id string, update core.MemeUpdate) (*core.Meme, error) {
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

	exportJSON, err := marshalJSON(meme.Export)
	if err != nil {
		return nil, err
	}
	tagsJSON, err := marshalJSON(meme.Tags)
	if err != nil {
		return nil, err
	}
	public := 0
	if meme.Public {
		public = 1
	}

	log := logrus.WithField("meme_id", id)
	_, err = s.db.ExecContext(ctx,
		"UPDATE memes SET title = ?, scene = ?, export = ?, tags = ?, public = ?, updated_at = ? WHERE id = ?",
		meme.Title, meme.Scene, exportJSON, tagsJSON, public, meme.UpdatedAt.UnixMilli(), id)
	if err != nil {
		log.WithError(err).Error("Failed to update meme")
		return nil, err
	}

	log.Info("Meme updated successfully")
	return meme, nil
}

// Delete removes a meme. Part of the MemeStore interface.
func (s *sqliteStore) Delete(ctx context.Context, id string) (bool, error) {
	log := logrus.WithField("meme_id", id)

	result, err := s.db.ExecContext(ctx, "DELETE FROM memes WHERE id = ?", id)
	if err != nil {
		log.WithError(err).Error("Failed to delete meme")
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		log.Warn("Meme not found for deletion")
		return false, nil
	}

	log.Info("Meme deleted successfully")
	return true, nil
}

// Put persists asset bytes plus metadata. Part of the AssetStore interface.
func (s *sqliteStore) Put(ctx context.Context, asset *core.Asset) (*core.Asset, error) {
	stored := *asset
	stored.ID = ulid.Make().String()
	stored.URL = "/api/v1/assets/" + stored.ID
	stored.CreatedAt = time.Now()

	log := logrus.WithFields(logrus.Fields{"asset_id": stored.ID, "byte_size": stored.ByteSize})
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO assets (id, url, mime_type, width, height, format, byte_size, data, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		stored.ID, stored.URL, stored.MimeType, stored.Width, stored.Height, stored.Format, stored.ByteSize, stored.Data, stored.CreatedAt.UnixMilli())
	if err != nil {
		log.WithError(err).Error("Failed to store asset")
		return nil, err
	}

	log.Info("Asset stored successfully")
	return &stored, nil
}

// GetAsset returns an asset including raw bytes. Part of the AssetStore
// interface.
func (s *sqliteStore) GetAsset(ctx context.Context, id string) (*core.Asset, error) {
	log := logrus.WithField("asset_id", id)

	var asset core.Asset
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, url, mime_type, width, height, format, byte_size, data, created_at FROM assets WHERE id = ?", id).
		Scan(&asset.ID, &asset.URL, &asset.MimeType, &asset.Width, &asset.Height, &asset.Format, &asset.ByteSize, &asset.Data, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Asset with specified ID not found")
			return nil, fmt.Errorf("asset %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve asset")
		return nil, err
	}

	asset.CreatedAt = time.UnixMilli(createdAt)
	return &asset, nil
}
