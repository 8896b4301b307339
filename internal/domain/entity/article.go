// Package entity defines the core domain entities for feedmail.
// It contains the Article and FeedState records that flow between the feed parser,
// the state snapshot, and the mailer, along with domain-specific errors.
package entity

// Article represents a single feed entry normalized for notification.
// Link is the identity of an article: two entries with the same link are the same article.
type Article struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published"`
	Summary   string `json:"summary"`
}

// FeedState is the persisted snapshot of the most recent fetch.
// It is read at the start of a run and written at the end when the write policy allows.
type FeedState struct {
	Articles  []Article `json:"articles"`
	FailCount int       `json:"fail_count"`
}

// EmptyFeedState returns the zero-value snapshot used when no prior state is available.
func EmptyFeedState() FeedState {
	return FeedState{Articles: []Article{}, FailCount: 0}
}

// Normalize returns a copy with a non-nil article slice and a non-negative fail count.
func (s FeedState) Normalize() FeedState {
	if s.Articles == nil {
		s.Articles = []Article{}
	}
	if s.FailCount < 0 {
		s.FailCount = 0
	}
	return s
}

// Links returns the set of article links contained in the snapshot.
func (s FeedState) Links() map[string]struct{} {
	links := make(map[string]struct{}, len(s.Articles))
	for _, a := range s.Articles {
		links[a.Link] = struct{}{}
	}
	return links
}

// SiteInfo describes the website whose feed is being announced.
// It supplies the branding values for the email template.
type SiteInfo struct {
	Title  string
	Icon   string
	RepoID string
}

// IssueTrackerURL returns the issue tracker link for the repository that hosts the notifier.
func (s SiteInfo) IssueTrackerURL() string {
	return "https://github.com/" + s.RepoID + "/issues"
}
