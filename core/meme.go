package core

import (
	"context"
	"time"
)

type (
	// ExportMeta describes the last rendered output of a meme.
	ExportMeta struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		Format   string `json:"format"`
		ByteSize int    `json:"byteSize"`
	}

	// Meme represents the metadata and serialized scene of a saved meme.
	Meme struct {
		ID        string      `json:"id"`
		Title     string      `json:"title"`
		Scene     []byte      `json:"scene,omitempty"` // The full scene blob, not included in list views.
		Export    *ExportMeta `json:"export,omitempty"`
		Tags      []string    `json:"tags,omitempty"`
		Public    bool        `json:"public"`
		CreatedAt time.Time   `json:"createdAt"`
		UpdatedAt time.Time   `json:"updatedAt"`
	}

	// MemeUpdate carries the fields of a partial update. Nil fields are left
	// untouched.
	MemeUpdate struct {
		Title  *string     `json:"title,omitempty"`
		Scene  []byte      `json:"scene,omitempty"`
		Export *ExportMeta `json:"export,omitempty"`
		Tags   []string    `json:"tags,omitempty"`
		Public *bool       `json:"public,omitempty"`
	}

	// MemeFilter narrows List results.
	MemeFilter struct {
		Tag        string
		PublicOnly bool
	}

	// MemeStore defines the persistence layer for saved memes. Saves are
	// last-write-wins; this is a single-user editor.
	MemeStore interface {
		// Create persists a new meme and returns it with its assigned ID.
		Create(ctx context.Context, meme *Meme) (*Meme, error)

		// Get returns a single meme by ID, including the scene blob.
		Get(ctx context.Context, id string) (*Meme, error)

		// List returns metadata for all memes matching the filter. The
		// returned records do not contain the Scene blob to keep the
		// response light.
		List(ctx context.Context, filter MemeFilter) ([]*Meme, error)

		// Update applies a partial update and returns the updated record.
		Update(ctx context.Context, id string, update MemeUpdate) (*Meme, error)

		// Delete removes a meme. Reports whether a record was removed.
		Delete(ctx context.Context, id string) (bool, error)
	}
)

type (
	// Asset is an uploaded image addressable by URL, used as a meme
	// background or sticker source.
	Asset struct {
		ID        string    `json:"id"`
		URL       string    `json:"url"`
		MimeType  string    `json:"mimeType"`
		Width     int       `json:"width"`
		Height    int       `json:"height"`
		Format    string    `json:"format"`
		ByteSize  int       `json:"byteSize"`
		Data      []byte    `json:"-"` // Raw bytes, never serialized in API responses.
		CreatedAt time.Time `json:"createdAt"`
	}

	// AssetStore defines the persistence layer for uploaded image assets.
	AssetStore interface {
		// Put persists asset bytes plus metadata and returns the asset with
		// its assigned ID and URL.
		Put(ctx context.Context, asset *Asset) (*Asset, error)

		// GetAsset returns an asset including its raw bytes.
		GetAsset(ctx context.Context, id string) (*Asset, error)
	}
)

type (
	// Template is a catalog entry for a ready-made meme background.
	Template struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		ImageURL string `json:"imageUrl"`
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		Category string `json:"category,omitempty"`
	}

	// Sticker is a catalog entry for a decorative overlay image.
	Sticker struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		ImageURL string `json:"imageUrl"`
		Category string `json:"category,omitempty"`
	}

	// CatalogStore serves the read-only template and sticker catalogs. The
	// in-memory implementation seeds a fixed set at construction; durable
	// stores load whatever was seeded into them.
	CatalogStore interface {
		ListTemplates(ctx context.Context, category string) ([]*Template, error)
		ListStickers(ctx context.Context, category string) ([]*Sticker, error)
	}
)
