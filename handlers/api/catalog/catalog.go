// Package catalog serves the read-only template and sticker listings.
package catalog

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"memecanvas/core"
	"memecanvas/handlers/api/apiutil"
	"memecanvas/stores"
)

// HandleListTemplates lists the meme background templates.
func HandleListTemplates(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templates, err := store.ListTemplates(r.Context(), r.URL.Query().Get("category"))
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list templates")
			apiutil.Error(w, r, err)
			return
		}
		if templates == nil {
			templates = []*core.Template{}
		}
		render.JSON(w, r, templates)
	}
}

// HandleListStickers lists the sticker overlays.
func HandleListStickers(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stickers, err := store.ListStickers(r.Context(), r.URL.Query().Get("category"))
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list stickers")
			apiutil.Error(w, r, err)
			return
		}
		if stickers == nil {
			stickers = []*core.Sticker{}
		}
		render.JSON(w, r, stickers)
	}
}
