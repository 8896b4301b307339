package dispatch

import "feedmail/internal/domain/entity"

// DefaultFailThreshold is the number of consecutive empty fetches after which
// the empty result is persisted, replacing the last known articles.
const DefaultFailThreshold = 3

// NewArticles returns the articles in latest whose link does not appear in last,
// in latest's order. It does not modify its arguments.
func NewArticles(latest, last []entity.Article) []entity.Article {
	seen := entity.FeedState{Articles: last}.Links()

	fresh := make([]entity.Article, 0, len(latest))
	for _, a := range latest {
		if _, ok := seen[a.Link]; ok {
			continue
		}
		fresh = append(fresh, a)
	}
	return fresh
}

// NextFailCount returns the consecutive empty-fetch counter after a fetch.
func NextFailCount(prev int, fetched bool) int {
	if fetched {
		return 0
	}
	if prev < 0 {
		prev = 0
	}
	return prev + 1
}

// ShouldPersist reports whether the snapshot should be written.
// A transient empty fetch keeps the previous snapshot so its articles are not
// announced again once the feed recovers.
func ShouldPersist(latest []entity.Article, failCount, threshold int) bool {
	return len(latest) > 0 || failCount >= threshold
}
