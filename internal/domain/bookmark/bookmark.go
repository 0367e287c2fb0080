package bookmark

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/markdex/internal/domain"
)

// Limits on the text that gets embedded. The URL is a key and has none.
const (
	MaxTitleLength       = 2048
	MaxDescriptionLength = 16384
)

// Record is a validated bookmark (immutable value object).
// The URL is an opaque key: it is trimmed but never parsed.
type Record struct {
	url         string
	title       string
	description string
}

// New trims and validates a bookmark. URL and title are required; description is optional.
func New(url, title, description string) (Record, error) {
	url = strings.TrimSpace(url)
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if url == "" {
		return Record{}, fmt.Errorf("url is required: %w", domain.ErrInvalidRecord)
	}
	if title == "" {
		return Record{}, fmt.Errorf("title is required: %w", domain.ErrInvalidRecord)
	}
	if len(title) > MaxTitleLength {
		return Record{}, fmt.Errorf("title too long (max %d): %w", MaxTitleLength, domain.ErrInvalidRecord)
	}
	if len(description) > MaxDescriptionLength {
		return Record{}, fmt.Errorf(
			"description too long (max %d): %w", MaxDescriptionLength, domain.ErrInvalidRecord,
		)
	}

	return Record{url: url, title: title, description: description}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(url, title, description string) Record {
	return Record{url: url, title: title, description: description}
}

// URL returns the bookmark identity.
func (r Record) URL() string { return r.url }

// Title returns the bookmark title.
func (r Record) Title() string { return r.title }

// Description returns the optional description (may be empty).
func (r Record) Description() string { return r.description }

// EmbeddingText is the text embedded for this bookmark: title, then description.
func (r Record) EmbeddingText() string {
	if r.description == "" {
		return r.title
	}
	return r.title + "\n" + r.description
}

// Raw is an unvalidated bookmark as supplied by a caller or an importer.
type Raw struct {
	URL         string
	Title       string
	Description string
}

// Validate trims and validates r.
func (r Raw) Validate() (Record, error) {
	return New(r.URL, r.Title, r.Description)
}

// Key is the identity r will have once validated.
func (r Raw) Key() string { return strings.TrimSpace(r.URL) }
