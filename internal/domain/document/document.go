package document

import (
	"crypto/sha256"
	"encoding/hex"
)

// IDLength is the length of a content hash id (hex-encoded SHA-256).
const IDLength = sha256.Size * 2

// Document is the document aggregate (immutable value object).
// The id is always derived from the text.
type Document struct {
	id   string
	text string
}

// New creates a Document whose id is the content hash of text.
func New(text string) Document {
	return Document{id: ContentHash(text), text: text}
}

// Reconstruct creates a Document without hashing (storage hydration).
func Reconstruct(id, text string) Document {
	return Document{id: id, text: text}
}

// ContentHash returns the lowercase hex SHA-256 digest of the UTF-8 bytes of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// IsValidID reports whether id has the shape of a content hash.
func IsValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Text returns the document text.
func (d *Document) Text() string { return d.text }
