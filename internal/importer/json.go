package importer

import (
	"bytes"
	"encoding/json"

	"github.com/kailas-cloud/markdex/internal/domain/bookmark"
)

type jsonBookmark struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func parseJSON(data []byte) ([]bookmark.Raw, error) {
	var items []jsonBookmark
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
	}
	out := make([]bookmark.Raw, len(items))
	for i, it := range items {
		out[i] = bookmark.Raw{URL: it.URL, Title: it.Title, Description: it.Description}
	}
	return out, nil
}
