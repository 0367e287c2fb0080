package importer

import (
	"encoding/json"

	"github.com/kailas-cloud/markdex/internal/domain/bookmark"
)

// chromeNode is a node of the Chrome bookmark tree, both in the profile
// Bookmarks file and in the chrome.bookmarks.getTree API.
type chromeNode struct {
	Title    string       `json:"title"`
	Name     string       `json:"name"`
	URL      string       `json:"url"`
	Children []chromeNode `json:"children"`
}

func (n *chromeNode) title() string {
	if n.Title != "" {
		return n.Title
	}
	return n.Name
}

// chromeFile is the profile Bookmarks file layout.
type chromeFile struct {
	Roots struct {
		BookmarkBar chromeNode `json:"bookmark_bar"`
		Other       chromeNode `json:"other"`
		Synced      chromeNode `json:"synced"`
	} `json:"roots"`
}

// parseChrome flattens the tree depth-first in document order. Folders and
// nodes without a title are skipped; the description defaults to the title
// because Chrome stores none.
func parseChrome(data []byte) ([]bookmark.Raw, error) {
	var roots []chromeNode
	if Detect(data) == FormatJSON {
		if err := json.Unmarshal(data, &roots); err != nil {
			return nil, err
		}
	} else {
		var f chromeFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		roots = []chromeNode{f.Roots.BookmarkBar, f.Roots.Other, f.Roots.Synced}
	}

	out := []bookmark.Raw{}
	var walk func(nodes []chromeNode)
	walk = func(nodes []chromeNode) {
		for i := range nodes {
			n := &nodes[i]
			if title := n.title(); n.URL != "" && title != "" {
				out = append(out, bookmark.Raw{URL: n.URL, Title: title, Description: title})
			}
			walk(n.Children)
		}
	}
	walk(roots)
	return out, nil
}
