package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedmail/internal/domain/entity"
)

var (
	testArticle = entity.Article{
		Title:     "T",
		Link:      "L",
		Published: "Mon, 01 Jan 2024 00:00:00 +0000",
		Summary:   "<p>S &amp; more</p>",
	}
	testSite = entity.SiteInfo{Title: "My Blog", Icon: "https://example.com/icon.png", RepoID: "octo/blog"}
)

func TestRender_Placeholders(t *testing.T) {
	out, err := Render("{{title}} - {{link}}", testArticle, testSite)

	require.NoError(t, err)
	assert.Equal(t, "T - L", out)
}

func TestRender_KeepsValuesVerbatim(t *testing.T) {
	article := entity.Article{Title: "Tom & Jerry", Link: "https://x/?a=1&b=2"}

	out, err := Render("{{title}} - {{link}}", article, testSite)

	require.NoError(t, err)
	assert.Equal(t, "Tom & Jerry - https://x/?a=1&b=2", out)
}

func TestRender_AllBindings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "website title", src: "{{website_title}}", want: "My Blog"},
		{name: "website icon", src: "{{{website_icon}}}", want: "https://example.com/icon.png"},
		{name: "issue url", src: "{{{github_issue_url}}}", want: "https://github.com/octo/blog/issues"},
		{name: "published", src: "{{published}}", want: "Mon, 01 Jan 2024 00:00:00 +0000"},
		{name: "summary", src: "{{summary}}", want: "<p>S &amp; more</p>"},
		{name: "triple mustache summary", src: "{{{summary}}}", want: "<p>S &amp; more</p>"},
		{name: "spaces inside tags", src: "{{ title }}", want: "T"},
		{name: "unknown binding", src: "[{{nope}}]", want: "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(tt.src, testArticle, testSite)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRender_Pure(t *testing.T) {
	src := DefaultTemplate()

	first, err := Render(src, testArticle, testSite)
	require.NoError(t, err)
	second, err := Render(src, testArticle, testSite)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "<p>S &amp; more</p>")
	assert.Contains(t, first, `href="L"`)
	assert.Contains(t, first, "https://github.com/octo/blog/issues")
}

func TestRender_InvalidTemplate(t *testing.T) {
	_, err := Render("{{#section}}never closed", testArticle, testSite)

	assert.Error(t, err)
}

func TestRenderSubject(t *testing.T) {
	article := entity.Article{Title: "Go & Rust"}

	def, err := RenderSubject("", article, testSite)
	require.NoError(t, err)
	assert.Equal(t, "博客更新通知 - Go & Rust", def)

	custom, err := RenderSubject("[{{website_title}}] {{title}}", article, testSite)
	require.NoError(t, err)
	assert.Equal(t, "[My Blog] Go & Rust", custom)
}
