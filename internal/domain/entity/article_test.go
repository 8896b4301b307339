package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticle_JSONKeys(t *testing.T) {
	article := Article{
		Title:     "Hello",
		Link:      "https://example.com/hello",
		Published: "Mon, 01 Jan 2024 00:00:00 +0000",
		Summary:   "First post",
	}

	data, err := json.Marshal(article)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "Hello", raw["title"])
	assert.Equal(t, "https://example.com/hello", raw["link"])
	assert.Equal(t, "Mon, 01 Jan 2024 00:00:00 +0000", raw["published"])
	assert.Equal(t, "First post", raw["summary"])
	assert.Len(t, raw, 4)
}

func TestEmptyFeedState(t *testing.T) {
	state := EmptyFeedState()

	assert.NotNil(t, state.Articles)
	assert.Empty(t, state.Articles)
	assert.Equal(t, 0, state.FailCount)

	data, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, `{"articles":[],"fail_count":0}`, string(data))
}

func TestFeedState_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		state     FeedState
		wantCount int
		wantLen   int
	}{
		{
			name:      "nil articles become empty slice",
			state:     FeedState{Articles: nil, FailCount: 2},
			wantCount: 2,
			wantLen:   0,
		},
		{
			name:      "negative fail count is clamped",
			state:     FeedState{Articles: []Article{{Link: "a"}}, FailCount: -4},
			wantCount: 0,
			wantLen:   1,
		},
		{
			name:      "valid state is unchanged",
			state:     FeedState{Articles: []Article{{Link: "a"}, {Link: "b"}}, FailCount: 1},
			wantCount: 1,
			wantLen:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.state.Normalize()
			assert.NotNil(t, got.Articles)
			assert.Len(t, got.Articles, tt.wantLen)
			assert.Equal(t, tt.wantCount, got.FailCount)
		})
	}
}

func TestFeedState_Links(t *testing.T) {
	state := FeedState{Articles: []Article{
		{Link: "https://x/1"},
		{Link: "https://x/2"},
		{Link: "https://x/1"},
	}}

	links := state.Links()

	assert.Len(t, links, 2)
	assert.Contains(t, links, "https://x/1")
	assert.Contains(t, links, "https://x/2")
}

func TestSiteInfo_IssueTrackerURL(t *testing.T) {
	site := SiteInfo{RepoID: "octo/blog"}
	assert.Equal(t, "https://github.com/octo/blog/issues", site.IssueTrackerURL())
}
