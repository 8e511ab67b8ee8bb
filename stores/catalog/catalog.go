// Package catalog holds the read-only template and sticker catalogs shared
// by every store backend. The seed set is fixed at process start; it does
// not survive restarts unless a durable backend re-seeds it.
package catalog

import (
	"context"

	"memecanvas/core"
)

// Catalog implements core.CatalogStore over a fixed seed set.
type Catalog struct {
	templates []*core.Template
	stickers  []*core.Sticker
}

// NewSeeded creates a catalog populated with the built-in fixtures.
func NewSeeded() *Catalog {
	return &Catalog{
		templates: []*core.Template{
			{ID: "tpl-drake", Name: "Drake Hotline Bling", ImageURL: "/static/templates/drake.jpg", Width: 1200, Height: 1200, Category: "classic"},
			{ID: "tpl-distracted", Name: "Distracted Boyfriend", ImageURL: "/static/templates/distracted.jpg", Width: 1200, Height: 800, Category: "classic"},
			{ID: "tpl-brain", Name: "Expanding Brain", ImageURL: "/static/templates/brain.jpg", Width: 857, Height: 1202, Category: "classic"},
			{ID: "tpl-fine", Name: "This Is Fine", ImageURL: "/static/templates/fine.jpg", Width: 580, Height: 282, Category: "reaction"},
			{ID: "tpl-button", Name: "Two Buttons", ImageURL: "/static/templates/buttons.jpg", Width: 600, Height: 908, Category: "choice"},
		},
		stickers: []*core.Sticker{
			{ID: "stk-sunglasses", Name: "Deal With It Sunglasses", ImageURL: "/static/stickers/sunglasses.png", Category: "accessory"},
			{ID: "stk-crown", Name: "Crown", ImageURL: "/static/stickers/crown.png", Category: "accessory"},
			{ID: "stk-fire", Name: "Fire", ImageURL: "/static/stickers/fire.png", Category: "effect"},
			{ID: "stk-laughing", Name: "Crying Laughing", ImageURL: "/static/stickers/laughing.png", Category: "emoji"},
			{ID: "stk-hundred", Name: "100", ImageURL: "/static/stickers/hundred.png", Category: "emoji"},
		},
	}
}

// ListTemplates returns the templates, optionally filtered by category.
func (c *Catalog) ListTemplates(ctx context.Context, category string) ([]*core.Template, error) {
	if category == "" {
		return append([]*core.Template{}, c.templates...), nil
	}
	out := []*core.Template{}
	for _, t := range c.templates {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListStickers returns the stickers, optionally filtered by category.
func (c *Catalog) ListStickers(ctx context.Context, category string) ([]*core.Sticker, error) {
	if category == "" {
		return append([]*core.Sticker{}, c.stickers...), nil
	}
	out := []*core.Sticker{}
	for _, s := range c.stickers {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out, nil
}
