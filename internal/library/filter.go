package library

import (
	"strings"

	"github.com/gobwas/glob"

	"pose-browser/internal/logging"
)

// Query narrows the document list.
type Query struct {
	// Search matches the short path, name and tags. It is a glob when it
	// contains *, ? or [, otherwise a substring. Matching ignores case.
	Search string
	// ImagesOnly keeps documents with a resolved preview image.
	ImagesOnly bool
}

// matcher reports whether any of the candidate strings matches.
type matcher func(candidates ...string) bool

func newMatcher(search string) matcher {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return func(...string) bool { return true }
	}

	if strings.ContainsAny(search, "*?[") {
		g, err := glob.Compile(search)
		if err == nil {
			return func(candidates ...string) bool {
				for _, c := range candidates {
					if g.Match(strings.ToLower(c)) {
						return true
					}
				}
				return false
			}
		}
		logging.Debug("Invalid glob %q, falling back to substring match: %v", search, err)
	}

	return func(candidates ...string) bool {
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(c), search) {
				return true
			}
		}
		return false
	}
}

// Filter returns the indexed documents matching q, in path order.
func (l *Library) Filter(q Query) []*Document {
	match := newMatcher(q.Search)

	var out []*Document
	for _, doc := range l.Documents() {
		if q.ImagesOnly {
			if _, ok := doc.ImagePath(); !ok {
				continue
			}
		}

		candidates := append([]string{l.ShortPath(doc.Path), doc.Name}, doc.Tags()...)
		if !match(candidates...) {
			continue
		}
		out = append(out, doc)
	}
	return out
}
