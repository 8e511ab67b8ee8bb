package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"memecanvas/core"
)

// DefaultAssetTimeout bounds how long an export waits for pending image
// sources before failing with AssetLoadTimeout.
const DefaultAssetTimeout = 15 * time.Second

// maxAssetBytes caps a fetched source at the upload limit.
const maxAssetBytes = 10 << 20

// Resolver turns an image source reference into decoded pixels. Export never
// paints a placeholder for an unresolved source; it resolves everything or
// fails.
type Resolver interface {
	Resolve(ctx context.Context, url string) (image.Image, error)
}

// HTTPResolver fetches http(s) URLs and decodes data: URIs.
type HTTPResolver struct {
	Client *http.Client
}

// NewHTTPResolver creates a resolver with a default client. Per-request
// deadlines come from the export context.
func NewHTTPResolver() *HTTPResolver {
	return &HTTPResolver{Client: &http.Client{}}
}

func (r *HTTPResolver) Resolve(ctx context.Context, url string) (image.Image, error) {
	if strings.HasPrefix(url, "data:") {
		return decodeDataURI(url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, core.ErrAssetLoadError)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, core.ErrAssetLoadTimeout)
		}
		return nil, fmt.Errorf("fetch %s: %v: %w", url, err, core.ErrAssetLoadError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d: %w", url, resp.StatusCode, core.ErrAssetLoadError)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("read %s: %w", url, core.ErrAssetLoadTimeout)
		}
		return nil, fmt.Errorf("read %s: %v: %w", url, err, core.ErrAssetLoadError)
	}
	if len(data) > maxAssetBytes {
		return nil, fmt.Errorf("fetch %s: over %d bytes: %w", url, maxAssetBytes, core.ErrAssetLoadError)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %v: %w", url, err, core.ErrAssetLoadError)
	}
	return img, nil
}

func decodeDataURI(uri string) (image.Image, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data uri: %w", core.ErrAssetLoadError)
	}
	meta, payload := uri[5:comma], uri[comma+1:]

	var data []byte
	var err error
	if strings.HasSuffix(meta, ";base64") {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data uri: %v: %w", err, core.ErrAssetLoadError)
		}
	} else {
		data = []byte(payload)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode data uri: %v: %w", err, core.ErrAssetLoadError)
	}
	return img, nil
}

// StoreResolver serves asset-store URLs locally and delegates the rest. The
// upload handler hands out /api/v1/assets/{id} URLs; resolving those in
// process avoids a loopback HTTP fetch.
type StoreResolver struct {
	Assets core.AssetStore
	Prefix string
	Next   Resolver
}

func (r *StoreResolver) Resolve(ctx context.Context, url string) (image.Image, error) {
	id, ok := strings.CutPrefix(url, r.Prefix)
	if !ok {
		if r.Next == nil {
			return nil, fmt.Errorf("no resolver for %s: %w", url, core.ErrAssetLoadError)
		}
		return r.Next.Resolve(ctx, url)
	}

	asset, err := r.Assets.GetAsset(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("asset %s: %w", id, core.ErrAssetLoadError)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("asset %s: %w", id, core.ErrAssetLoadTimeout)
		}
		return nil, fmt.Errorf("asset %s: %v: %w", id, err, core.ErrAssetLoadError)
	}

	img, _, err := image.Decode(bytes.NewReader(asset.Data))
	if err != nil {
		logrus.WithFields(logrus.Fields{"asset_id": id, "error": err}).Warn("Stored asset failed to decode")
		return nil, fmt.Errorf("decode asset %s: %w", id, core.ErrAssetLoadError)
	}
	return img, nil
}
