// Package assets implements the upload collaborator: raw image bytes in,
// addressable URL plus decoded metadata out.
package assets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"memecanvas/core"
	"memecanvas/handlers/api/apiutil"
	"memecanvas/stores"
)

// MaxUploadBytes is the hard input cap for one asset.
const MaxUploadBytes = 10 << 20 // 10 MiB

// HandleUpload accepts raw image bytes with a declared content type, decodes
// the dimensions and persists the asset. Non-image input is rejected with
// 415; the declared mime type is checked against the sniffed bytes rather
// than trusted.
func HandleUpload(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
		data, err := io.ReadAll(r.Body)
		if err != nil {
			logrus.WithField("error", err).Warn("Failed to read upload body")
			apiutil.ErrorMessage(w, r, http.StatusRequestEntityTooLarge, "Upload exceeds 10 MiB limit")
			return
		}
		defer r.Body.Close()

		if len(data) == 0 {
			apiutil.ErrorMessage(w, r, http.StatusBadRequest, "Empty upload")
			return
		}

		declared := r.Header.Get("Content-Type")
		sniffed := http.DetectContentType(data)
		if !strings.HasPrefix(sniffed, "image/") {
			logrus.WithFields(logrus.Fields{"declared": declared, "sniffed": sniffed}).Warn("Rejected non-image upload")
			apiutil.Error(w, r, fmt.Errorf("content type %s: %w", sniffed, core.ErrUnsupportedMediaType))
			return
		}

		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			logrus.WithField("error", err).Warn("Failed to decode uploaded image")
			apiutil.Error(w, r, fmt.Errorf("undecodable image: %w", core.ErrUnsupportedMediaType))
			return
		}

		asset, err := store.Put(r.Context(), &core.Asset{
			MimeType: sniffed,
			Width:    cfg.Width,
			Height:   cfg.Height,
			Format:   format,
			ByteSize: len(data),
			Data:     data,
		})
		if err != nil {
			logrus.WithField("error", err).Error("Failed to store asset")
			apiutil.Error(w, r, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, asset)
	}
}

// HandleGet serves an asset's bytes back with its stored content type. This
// is the URL image objects reference.
func HandleGet(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			apiutil.ErrorMessage(w, r, http.StatusBadRequest, "Asset id is required")
			return
		}

		asset, err := store.GetAsset(r.Context(), id)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "asset_id": id}).Warn("Failed to get asset")
			apiutil.Error(w, r, err)
			return
		}

		w.Header().Set("Content-Type", asset.MimeType)
		w.Header().Set("Content-Length", strconv.Itoa(len(asset.Data)))
		if _, err := w.Write(asset.Data); err != nil {
			logrus.WithField("error", err).Warn("Failed to write asset response")
		}
	}
}
