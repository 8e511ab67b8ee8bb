package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"memecanvas/core"
	"memecanvas/stores/memory"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 0xff, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture png: %v", err)
	}
	return buf.Bytes()
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleUpload_Success(t *testing.T) {
	store := memory.NewStore()
	handler := HandleUpload(store)

	data := pngBytes(t, 64, 48)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assets", bytes.NewReader(data))
	req.Header.Set("Content-Type", "image/png")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusCreated)
	}

	var asset core.Asset
	if err := json.NewDecoder(rec.Body).Decode(&asset); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if asset.ID == "" || asset.URL == "" {
		t.Error("Response missing id or url")
	}
	if asset.Width != 64 || asset.Height != 48 {
		t.Errorf("Decoded dimensions = %dx%d, want 64x48", asset.Width, asset.Height)
	}
	if asset.MimeType != "image/png" || asset.Format != "png" {
		t.Errorf("Type fields = %q/%q", asset.MimeType, asset.Format)
	}
	if asset.ByteSize != len(data) {
		t.Errorf("ByteSize = %d, want %d", asset.ByteSize, len(data))
	}
}

func TestHandleUpload_NonImage(t *testing.T) {
	handler := HandleUpload(memory.NewStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assets", strings.NewReader("just some text"))
	req.Header.Set("Content-Type", "image/png") // declared type is not trusted
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusUnsupportedMediaType)
	}
}

func TestHandleUpload_Empty(t *testing.T) {
	handler := HandleUpload(memory.NewStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assets", http.NoBody)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleUpload_TooLarge(t *testing.T) {
	handler := HandleUpload(memory.NewStore())

	oversized := bytes.NewReader(make([]byte, MaxUploadBytes+1))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assets", oversized)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestUploadAndGet_RoundTrip(t *testing.T) {
	store := memory.NewStore()

	data := pngBytes(t, 32, 32)
	uploadReq := httptest.NewRequest(http.MethodPost, "/api/v1/assets", bytes.NewReader(data))
	uploadRec := httptest.NewRecorder()
	HandleUpload(store)(uploadRec, uploadReq)

	if uploadRec.Code != http.StatusCreated {
		t.Fatalf("Upload failed: status %d", uploadRec.Code)
	}
	var asset core.Asset
	if err := json.NewDecoder(uploadRec.Body).Decode(&asset); err != nil {
		t.Fatalf("Failed to decode upload response: %v", err)
	}

	getReq := withID(httptest.NewRequest(http.MethodGet, "/api/v1/assets/"+asset.ID, http.NoBody), asset.ID)
	getRec := httptest.NewRecorder()
	HandleGet(store)(getRec, getReq)

	if getRec.Code != http.StatusOK {
		t.Fatalf("Get failed: status %d", getRec.Code)
	}
	if ct := getRec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if !bytes.Equal(getRec.Body.Bytes(), data) {
		t.Error("Served bytes differ from the uploaded bytes")
	}
}

func TestHandleGet_NotFound(t *testing.T) {
	handler := HandleGet(memory.NewStore())

	req := withID(httptest.NewRequest(http.MethodGet, "/api/v1/assets/nope", http.NoBody), "nope")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}
