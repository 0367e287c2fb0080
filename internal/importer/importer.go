// Package importer reads bookmark exports into raw records ready for indexing.
package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/domain/bookmark"
)

// Format names a bookmark export format.
type Format string

// Supported formats.
const (
	FormatChrome   Format = "chrome"
	FormatNetscape Format = "netscape"
	FormatJSON     Format = "json"
)

// MaxInputSize bounds a single import.
const MaxInputSize = 64 << 20

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = fmt.Errorf("unknown bookmark format: %w", domain.ErrInvalidArgument)

// ParseFormat validates a format name. An empty name means auto-detect.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatChrome, FormatNetscape, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
	}
}

// Detect guesses the format from the first non-space byte.
func Detect(data []byte) Format {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return FormatJSON
	case data[0] == '[':
		return FormatJSON
	case data[0] == '{':
		return FormatChrome
	default:
		return FormatNetscape
	}
}

// Parse reads an export in the given format; an empty format is detected.
func Parse(r io.Reader, format Format) ([]bookmark.Raw, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("read bookmarks: %w", err)
	}
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("bookmark export exceeds %d bytes: %w", MaxInputSize, domain.ErrInvalidArgument)
	}
	if format == "" {
		format = Detect(data)
	}

	var raws []bookmark.Raw
	switch format {
	case FormatChrome:
		raws, err = parseChrome(data)
	case FormatNetscape:
		raws, err = parseNetscape(data)
	case FormatJSON:
		raws, err = parseJSON(data)
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return nil, err
		}
		return nil, fmt.Errorf("parse %s bookmarks: %w: %w", format, domain.ErrInvalidArgument, err)
	}
	return raws, nil
}
