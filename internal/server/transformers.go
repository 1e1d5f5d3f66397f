package server

import (
	"context"

	"github.com/kivisai/site/pkg/blog"
	"github.com/kivisai/site/pkg/composer"
	"github.com/kivisai/site/pkg/pipeline"
)

// blogListing fills values["posts"] for pages with a BlogList section. The
// section's limit prop caps the listing and values["tag"] filters it.
func (s *Server) blogListing() pipeline.Transformer {
	return pipeline.WhenComponent(composer.KindBlogList, pipeline.TransformerFunc(
		func(_ context.Context, page *composer.Template, values map[string]any) error {
			limit := 0
			for _, section := range page.Sections {
				if section.Component == composer.KindBlogList {
					limit = intProp(section.Props, "limit")
					break
				}
			}

			var summaries []blog.Summary
			if tag, _ := values["tag"].(string); tag != "" {
				for _, post := range s.blog.Tagged(tag) {
					if limit > 0 && len(summaries) == limit {
						break
					}
					summaries = append(summaries, post.Summarize())
				}
			} else {
				summaries = s.blog.Summaries(limit)
			}

			posts := make([]any, 0, len(summaries))
			for _, summary := range summaries {
				posts = append(posts, map[string]any{
					"slug":    summary.Slug,
					"title":   summary.Title,
					"date":    summary.Date,
					"tags":    summary.Tags,
					"excerpt": summary.Excerpt,
				})
			}
			values["posts"] = posts
			return nil
		}))
}

// evalkitQuestions fills values["questions"] for pages embedding the quiz.
func (s *Server) evalkitQuestions() pipeline.Transformer {
	return pipeline.WhenComponent(composer.KindEvalkit, pipeline.TransformerFunc(
		func(_ context.Context, _ *composer.Template, values map[string]any) error {
			questions := s.kit.Questions()
			out := make([]any, 0, len(questions))
			for _, q := range questions {
				out = append(out, map[string]any{
					"id":       q.ID,
					"category": string(q.Category),
					"text":     q.Text,
				})
			}
			values["questions"] = out
			return nil
		}))
}

func intProp(props composer.Props, key string) int {
	switch v := props[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
