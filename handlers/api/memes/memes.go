package memes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"memecanvas/core"
	"memecanvas/handlers/api/apiutil"
	"memecanvas/stores"
)

type (
	// SaveMemeRequest carries a create or full-save payload. The scene is
	// the editor's serialized graph, passed through opaquely.
	SaveMemeRequest struct {
		Title  string          `json:"title"`
		Scene  json.RawMessage `json:"scene"`
		Tags   []string        `json:"tags,omitempty"`
		Public bool            `json:"public"`
	}

	// UpdateMemeRequest carries a partial update; nil fields are untouched.
	UpdateMemeRequest struct {
		Title  *string         `json:"title,omitempty"`
		Scene  json.RawMessage `json:"scene,omitempty"`
		Tags   []string        `json:"tags,omitempty"`
		Public *bool           `json:"public,omitempty"`
	}
)

// HandleCreate saves a new meme record.
func HandleCreate(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveMemeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode create request")
			apiutil.ErrorMessage(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Title == "" {
			apiutil.ErrorMessage(w, r, http.StatusBadRequest, "Title is required")
			return
		}

		meme, err := store.Create(r.Context(), &core.Meme{
			Title:  req.Title,
			Scene:  []byte(req.Scene),
			Tags:   req.Tags,
			Public: req.Public,
		})
		if err != nil {
			logrus.WithField("error", err).Error("Failed to create meme")
			apiutil.Error(w, r, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, meme)
	}
}

// HandleGet returns a single meme including its scene blob.
func HandleGet(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			apiutil.ErrorMessage(w, r, http.StatusBadRequest, "Meme id is required")
			return
		}

		meme, err := store.Get(r.Context(), id)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "meme_id": id}).Warn("Failed to get meme")
			apiutil.Error(w, r, err)
			return
		}

		render.JSON(w, r, meme)
	}
}

// HandleList returns meme metadata without scene blobs.
func HandleList(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := core.MemeFilter{
			Tag:        r.URL.Query().Get("tag"),
			PublicOnly: r.URL.Query().Get("public") == "true",
		}

		memes, err := store.List(r.Context(), filter)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list memes")
			apiutil.Error(w, r, err)
			return
		}

		// No memes yet is an empty slice, never null.
		if memes == nil {
			memes = []*core.Meme{}
		}
		render.JSON(w, r, memes)
	}
}

// HandleUpdate applies a partial update to a meme record.
func HandleUpdate(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			apiutil.ErrorMessage(w, r, http.StatusBadRequest, "Meme id is required")
			return
		}

		var req UpdateMemeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode update request")
			apiutil.ErrorMessage(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}

		meme, err := store.Update(r.Context(), id, core.MemeUpdate{
			Title:  req.Title,
			Scene:  []byte(req.Scene),
			Tags:   req.Tags,
			Public: req.Public,
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "meme_id": id}).Error("Failed to update meme")
			apiutil.Error(w, r, err)
			return
		}

		render.JSON(w, r, meme)
	}
}

// HandleDelete removes a meme record.
func HandleDelete(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			apiutil.ErrorMessage(w, r, http.StatusBadRequest, "Meme id is required")
			return
		}

		deleted, err := store.Delete(r.Context(), id)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "meme_id": id}).Error("Failed to delete meme")
			apiutil.Error(w, r, err)
			return
		}
		if !deleted {
			apiutil.ErrorMessage(w, r, http.StatusNotFound, "Meme not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
