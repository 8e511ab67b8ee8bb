package memory

import (
	"context"
	"errors"
	"testing"

	"memecanvas/core"
)

func TestCreateAndGet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	created, err := s.Create(ctx, &core.Meme{
		Title: "distracted",
		Scene: []byte(`{"width":500}`),
		Tags:  []string{"classic"},
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if created.ID == "" {
		t.Error("Create() did not assign an id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Title != "distracted" {
		t.Errorf("Get() title = %q, want %q", got.Title, "distracted")
	}
	if string(got.Scene) != `{"width":500}` {
		t.Error("Get() did not return the scene blob")
	}
}

func TestGet_NotFound(t *testing.T) {
	s := NewStore()
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestList_FiltersAndOmitsScene(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, err := s.Create(ctx, &core.Meme{Title: "a", Scene: []byte(`{}`), Tags: []string{"cats"}, Public: true}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err := s.Create(ctx, &core.Meme{Title: "b", Scene: []byte(`{}`), Tags: []string{"dogs"}}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	all, err := s.List(ctx, core.MemeFilter{})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List() returned %d memes, want 2", len(all))
	}
	for _, m := range all {
		if m.Scene != nil {
			t.Error("List() leaked the scene blob")
		}
	}

	public, err := s.List(ctx, core.MemeFilter{PublicOnly: true})
	if err != nil {
		t.Fatalf("List(public) failed: %v", err)
	}
	if len(public) != 1 || public[0].Title != "a" {
		t.Errorf("List(public) returned %d memes", len(public))
	}

	tagged, err := s.List(ctx, core.MemeFilter{Tag: "dogs"})
	if err != nil {
		t.Fatalf("List(tag) failed: %v", err)
	}
	if len(tagged) != 1 || tagged[0].Title != "b" {
		t.Errorf("List(tag=dogs) returned %d memes", len(tagged))
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	created, err := s.Create(ctx, &core.Meme{Title: "before", Scene: []byte(`{}`)})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	title := "after"
	updated, err := s.Update(ctx, created.ID, core.MemeUpdate{Title: &title})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Title != "after" {
		t.Errorf("Update() title = %q, want %q", updated.Title, "after")
	}
	if string(updated.Scene) != `{}` {
		t.Error("Update() touched a field the patch did not carry")
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) && !updated.UpdatedAt.Equal(created.UpdatedAt) {
		t.Error("Update() did not refresh UpdatedAt")
	}

	meta := core.ExportMeta{Width: 1080, Height: 1080, Format: "jpg", ByteSize: 4096}
	updated, err = s.Update(ctx, created.ID, core.MemeUpdate{Export: &meta})
	if err != nil {
		t.Fatalf("Update(export) failed: %v", err)
	}
	if updated.Export == nil || updated.Export.Width != 1080 {
		t.Error("Update() did not record export metadata")
	}

	if _, err := s.Update(ctx, "missing", core.MemeUpdate{Title: &title}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update() on missing id error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	created, err := s.Create(ctx, &core.Meme{Title: "short-lived", Scene: []byte(`{}`)})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	deleted, err := s.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if !deleted {
		t.Error("Delete() = false for an existing meme")
	}
	if _, err := s.Get(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	deleted, err = s.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete() second call failed: %v", err)
	}
	if deleted {
		t.Error("Delete() = true for an already deleted meme")
	}
}

func TestAsset_PutAndGet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	stored, err := s.Put(ctx, &core.Asset{
		MimeType: "image/png",
		Width:    64,
		Height:   64,
		Format:   "png",
		ByteSize: 3,
		Data:     []byte{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if stored.ID == "" {
		t.Error("Put() did not assign an id")
	}
	if stored.URL != "/api/v1/assets/"+stored.ID {
		t.Errorf("Put() URL = %q", stored.URL)
	}

	got, err := s.GetAsset(ctx, stored.ID)
	if err != nil {
		t.Fatalf("GetAsset() failed: %v", err)
	}
	if len(got.Data) != 3 || got.MimeType != "image/png" {
		t.Error("GetAsset() lost bytes or metadata")
	}

	if _, err := s.GetAsset(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetAsset() error = %v, want ErrNotFound", err)
	}
}

func TestCatalog_Seeded(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	templates, err := s.ListTemplates(ctx, "")
	if err != nil {
		t.Fatalf("ListTemplates() failed: %v", err)
	}
	if len(templates) == 0 {
		t.Error("ListTemplates() returned no seeded templates")
	}

	stickers, err := s.ListStickers(ctx, "")
	if err != nil {
		t.Fatalf("ListStickers() failed: %v", err)
	}
	if len(stickers) == 0 {
		t.Error("ListStickers() returned no seeded stickers")
	}

	none, err := s.ListTemplates(ctx, "no-such-category")
	if err != nil {
		t.Fatalf("ListTemplates(filtered) failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListTemplates(no-such-category) returned %d entries", len(none))
	}
}
