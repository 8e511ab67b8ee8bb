// Package export renders scenes to image bytes over HTTP, for both saved
// memes and inline scene blobs.
package export

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"memecanvas/core"
	"memecanvas/editor"
	"memecanvas/handlers/api/apiutil"
	"memecanvas/raster"
	"memecanvas/stores"
)

// InlineRequest exports a scene that was never saved: the editor posts its
// current blob together with the export settings.
type InlineRequest struct {
	Scene   json.RawMessage `json:"scene"`
	Request raster.Request  `json:"request"`
}

// Config wires the export handlers.
type Config struct {
	Resolver     raster.Resolver
	AssetTimeout time.Duration
}

func run(w http.ResponseWriter, r *http.Request, cfg Config, scene []byte, req raster.Request) (*raster.Result, bool) {
	session, err := editor.Restore(scene, editor.Config{
		Resolver:     cfg.Resolver,
		AssetTimeout: cfg.AssetTimeout,
	})
	if err != nil {
		logrus.WithField("error", err).Warn("Failed to restore scene for export")
		apiutil.ErrorMessage(w, r, http.StatusBadRequest, "Invalid scene blob")
		return nil, false
	}

	result, err := session.Export(r.Context(), req)
	if err != nil {
		logrus.WithFields(logrus.Fields{"error": err, "format": req.Format}).Warn("Export failed")
		apiutil.Error(w, r, err)
		return nil, false
	}
	return result, true
}

func writeImage(w http.ResponseWriter, result *raster.Result) {
	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		logrus.WithField("error", err).Warn("Failed to write export response")
	}
}

// HandleInline exports a scene blob posted in the request body.
func HandleInline(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InlineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode export request")
			apiutil.ErrorMessage(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}

		result, ok := run(w, r, cfg, []byte(req.Scene), req.Request)
		if !ok {
			return
		}
		writeImage(w, result)
	}
}

// HandleMeme exports a saved meme's scene and records the export metadata on
// the record.
func HandleMeme(store stores.Store, cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			apiutil.ErrorMessage(w, r, http.StatusBadRequest, "Meme id is required")
			return
		}

		var req raster.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode export request")
			apiutil.ErrorMessage(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}

		meme, err := store.Get(r.Context(), id)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "meme_id": id}).Warn("Failed to get meme for export")
			apiutil.Error(w, r, err)
			return
		}

		result, ok := run(w, r, cfg, meme.Scene, req)
		if !ok {
			return
		}

		// Best effort: the export already succeeded, a metadata write
		// failure only costs the record its freshness.
		meta := result.Meta
		if _, err := store.Update(r.Context(), id, core.MemeUpdate{Export: &meta}); err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "meme_id": id}).Warn("Failed to record export metadata")
		}

		writeImage(w, result)
	}
}
