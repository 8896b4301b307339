// Package template renders notification emails from Mustache templates.
//
// Templates see the bindings website_title, website_icon, github_issue_url, title,
// summary, link and published. Values are substituted verbatim: {{name}} and
// {{{name}}} both insert the raw string, so titles and links keep their
// ampersands and summaries keep their markup.
package template

import (
	"fmt"

	"feedmail/internal/domain/entity"

	"github.com/cbroglie/mustache"
)

// DefaultSubjectTemplate is the subject line used when none is configured.
const DefaultSubjectTemplate = "博客更新通知 - {{title}}"

// Bindings returns the values a template can reference for article on site.
func Bindings(article entity.Article, site entity.SiteInfo) map[string]string {
	return map[string]string{
		"website_title":    site.Title,
		"website_icon":     site.Icon,
		"github_issue_url": site.IssueTrackerURL(),
		"title":            article.Title,
		"summary":          article.Summary,
		"link":             article.Link,
		"published":        article.Published,
	}
}

// Render substitutes the article and site values into source.
// It is a pure function: equal inputs give byte-identical output.
func Render(source string, article entity.Article, site entity.SiteInfo) (string, error) {
	tmpl, err := mustache.ParseStringRaw(source, true)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	out, err := tmpl.Render(Bindings(article, site))
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}

// RenderSubject renders the subject line. An empty subjectTemplate uses DefaultSubjectTemplate.
func RenderSubject(subjectTemplate string, article entity.Article, site entity.SiteInfo) (string, error) {
	if subjectTemplate == "" {
		subjectTemplate = DefaultSubjectTemplate
	}
	return Render(subjectTemplate, article, site)
}
