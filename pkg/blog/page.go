package blog

import (
	"github.com/kivisai/site/pkg/composer"
)

// Page composes a full article page: a compact hero, the article body and a
// newsletter signup. The result validates against the default rules.
func (p Post) Page(baseURL string) composer.Template {
	subtitle := p.Date.Format("2 January 2006")
	if p.Author != "" {
		subtitle += " · " + p.Author
	}
	return composer.Template{
		ID:          "post-" + p.Slug,
		Name:        p.Title,
		Description: p.Summary,
		Metadata: composer.Metadata{
			Title:       p.Title + " | KIVISAI",
			Description: p.Summarize().Excerpt,
			Keywords:    p.Tags,
			Canonical:   baseURL + "/blog/" + p.Slug,
		},
		Sections: []composer.Section{
			{
				ID:        "hero",
				Component: composer.KindHero,
				Required:  true,
				Variants:  []string{"compact"},
				Props:     composer.Props{"title": p.Title, "subtitle": subtitle, "variant": "compact"},
			},
			{
				ID:        "article",
				Component: composer.KindContent,
				Required:  true,
				Props:     composer.Props{"markdown": p.Body},
			},
			{
				ID:        "newsletter",
				Component: composer.KindNewsletter,
				Props:     composer.Props{"title": "Enjoyed this article?", "action": "/api/newsletter"},
			},
		},
	}
}
