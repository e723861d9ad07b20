package siack

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Storage is the capability shared by every storage backend.
// Implementations are stateless beyond their configuration and safe for
// concurrent use. Both operations block for the duration of the I/O.
type Storage interface {
	// Read returns the full content addressed by a backend-specific path.
	//
	// Returns:
	//   - []byte: the whole content; never a partial read
	//   - error: a *StorageError of kind ErrNotFound, ErrIOFailure,
	//     ErrConfiguration, ErrConnect or ErrTransfer
	Read(ctx context.Context, path string) ([]byte, error)

	// Write classifies the extension, generates a collision-free stored
	// name, provisions the destination directory and publishes the content
	// atomically.
	//
	// Returns:
	//   - StorageResult: descriptor of the stored object
	//   - error: a *StorageError; ErrUnsupportedType is reported before any
	//     bytes are written
	Write(ctx context.Context, content []byte, extension string) (StorageResult, error)
}

// Remover is implemented by backends that can delete a stored object.
// FileService uses it to drop objects whose metadata could not be saved.
type Remover interface {
	Remove(ctx context.Context, path string) error
}

// CategoryImages is the only category currently accepted.
const CategoryImages = "images"

var categories = map[string]string{
	"jpg":  CategoryImages,
	"jpeg": CategoryImages,
	"png":  CategoryImages,
}

// NormalizeExtension lower-cases an extension and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ClassifyExtension maps an extension to its storage category. Matching is
// case-insensitive. Unknown extensions return ErrUnsupportedType.
func ClassifyExtension(ext string) (category, normalized string, err error) {
	normalized = NormalizeExtension(ext)
	category, ok := categories[normalized]
	if !ok {
		return "", "", StorageErrorf("classify", "", ErrUnsupportedType, "extension %q", ext)
	}
	return category, normalized, nil
}

// NewStoredName returns a random UUID joined with the normalized extension.
func NewStoredName(normalizedExt string) string {
	return uuid.New().String() + "." + normalizedExt
}
