// Package markdex embeds the markdex semantic bookmark engine in a Go program.
//
// An Engine keeps an in-memory semantic index of bookmarks. Index replaces
// the indexed set with a batch (bookmarks absent from the batch are
// removed), Search ranks bookmarks by meaning and may attach a short
// summary, Remove deletes a single bookmark.
//
//	engine, _ := markdex.New(markdex.WithExtractiveSummaries(0))
//	defer engine.Close()
//
//	report, _ := engine.Index(ctx, []markdex.Bookmark{
//	    {Title: "Tailwind CSS", URL: "https://tailwindcss.com/", Description: "utility-first CSS framework"},
//	})
//	out, _ := engine.Search(ctx, "css framework", markdex.TopK(5))
//	for _, r := range out.Results {
//	    fmt.Println(r.Rank, r.Title, r.Score)
//	}
//
// Without WithEmbedder the engine uses a local feature-hashing embedder,
// which needs no network access but only matches on shared words.
package markdex
