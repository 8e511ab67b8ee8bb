package core

import "errors"

// Sentinel errors shared across the scene engine, the export pipeline and the
// HTTP layer. Call sites wrap these with fmt.Errorf("...: %w", err) so that
// handlers can map them to status codes with errors.Is.
var (
	// ErrInvalidGeometry rejects non-finite values, non-positive scales and
	// out-of-range opacity before any state changes.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrObjectLocked signals a mutation attempt on a locked object. Toggling
	// visibility is exempt.
	ErrObjectLocked = errors.New("object is locked")

	// ErrNotFound signals a missing object or record id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation signals an operation that does not apply to the
	// object kind, such as a style edit on an image layer.
	ErrInvalidOperation = errors.New("operation not applicable to object kind")

	// ErrAssetLoadError signals that an image source could not be fetched or
	// decoded during export.
	ErrAssetLoadError = errors.New("asset load failed")

	// ErrAssetLoadTimeout signals that a pending image source did not resolve
	// within the export deadline.
	ErrAssetLoadTimeout = errors.New("asset load timed out")

	// ErrEncodingError signals an encoder failure. No partial buffer is ever
	// returned alongside it.
	ErrEncodingError = errors.New("image encoding failed")

	// ErrUnsupportedMediaType signals a non-image upload.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrUnavailable is the empty-result signal for undo/redo with nothing to
	// do. It is a normal condition, not a failure.
	ErrUnavailable = errors.New("unavailable")
)
