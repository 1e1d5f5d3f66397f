// Package blog loads Markdown articles with YAML front matter and exposes them
// as listings and composed pages.
package blog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kivisai/site/pkg/markup"
)

//go:embed posts/*.md
var embeddedPosts embed.FS

const (
	dateLayout     = "2006-01-02"
	excerptLength  = 160
	frontMatterSep = "---"
)

// ErrPostNotFound is returned when no published post matches a slug.
var ErrPostNotFound = errors.New("blog: post not found")

// EmbeddedFS exposes the posts bundled with the site.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedPosts, "posts")
	if err != nil {
		return embeddedPosts
	}
	return sub
}

// Post is a single article. Slug derives from the file name.
type Post struct {
	Slug    string    `json:"slug"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Author  string    `json:"author,omitempty"`
	Tags    []string  `json:"tags,omitempty"`
	Summary string    `json:"summary,omitempty"`
	Draft   bool      `json:"draft,omitempty"`
	Body    string    `json:"-"`
	HTML    string    `json:"html"`
}

// Summary is the listing view of a post.
type Summary struct {
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Tags    []string `json:"tags,omitempty"`
	Excerpt string   `json:"excerpt"`
}

type frontMatter struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Author  string   `yaml:"author"`
	Tags    []string `yaml:"tags"`
	Summary string   `yaml:"summary"`
	Draft   bool     `yaml:"draft"`
}

// Option configures a Store.
type Option func(*Store)

// WithDrafts includes draft posts in listings and lookups.
func WithDrafts() Option {
	return func(s *Store) {
		s.drafts = true
	}
}

// Store holds parsed posts ordered newest first. It is read-only after
// construction.
type Store struct {
	posts  []Post
	bySlug map[string]int
	drafts bool
}

// LoadFS parses every .md file at the root of fsys.
func LoadFS(fsys fs.FS, options ...Option) (*Store, error) {
	store := &Store{bySlug: make(map[string]int)}
	for _, opt := range options {
		if opt != nil {
			opt(store)
		}
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("blog: read posts: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".md" {
			continue
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("blog: read %s: %w", entry.Name(), err)
		}
		post, err := parsePost(strings.TrimSuffix(entry.Name(), ".md"), data)
		if err != nil {
			return nil, err
		}
		if post.Draft && !store.drafts {
			continue
		}
		store.posts = append(store.posts, post)
	}

	sort.SliceStable(store.posts, func(i, j int) bool {
		if !store.posts[i].Date.Equal(store.posts[j].Date) {
			return store.posts[i].Date.After(store.posts[j].Date)
		}
		return store.posts[i].Slug < store.posts[j].Slug
	})
	for idx, post := range store.posts {
		store.bySlug[post.Slug] = idx
	}
	return store, nil
}

// Default loads the embedded posts, excluding drafts.
func Default() (*Store, error) {
	return LoadFS(EmbeddedFS())
}

func parsePost(slug string, data []byte) (Post, error) {
	meta, body, err := splitFrontMatter(data)
	if err != nil {
		return Post{}, fmt.Errorf("blog: %s: %w", slug, err)
	}

	var fm frontMatter
	if err := yaml.Unmarshal(meta, &fm); err != nil {
		return Post{}, fmt.Errorf("blog: %s: parse front matter: %w", slug, err)
	}
	if strings.TrimSpace(fm.Title) == "" {
		return Post{}, fmt.Errorf("blog: %s: title is required", slug)
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(fm.Date))
	if err != nil {
		return Post{}, fmt.Errorf("blog: %s: invalid date %q: %w", slug, fm.Date, err)
	}

	html, err := markup.Markdown(body)
	if err != nil {
		return Post{}, fmt.Errorf("blog: %s: %w", slug, err)
	}

	return Post{
		Slug:    slug,
		Title:   fm.Title,
		Date:    date,
		Author:  fm.Author,
		Tags:    fm.Tags,
		Summary: fm.Summary,
		Draft:   fm.Draft,
		Body:    body,
		HTML:    html,
	}, nil
}

func splitFrontMatter(data []byte) ([]byte, string, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(text, frontMatterSep+"\n") {
		return nil, "", errors.New("missing front matter")
	}
	rest := text[len(frontMatterSep)+1:]
	end := strings.Index(rest, "\n"+frontMatterSep)
	if end < 0 {
		return nil, "", errors.New("unterminated front matter")
	}
	meta := rest[:end]
	body := strings.TrimPrefix(rest[end+len(frontMatterSep)+1:], "\n")
	return []byte(meta), string(bytes.TrimSpace([]byte(body))), nil
}

// List returns all posts, newest first.
func (s *Store) List() []Post {
	out := make([]Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Get returns the post with slug.
func (s *Store) Get(slug string) (Post, error) {
	idx, ok := s.bySlug[slug]
	if !ok {
		return Post{}, fmt.Errorf("%w: %q", ErrPostNotFound, slug)
	}
	return s.posts[idx], nil
}

// Tagged returns posts carrying tag, newest first. Matching ignores case.
func (s *Store) Tagged(tag string) []Post {
	var out []Post
	for _, post := range s.posts {
		for _, candidate := range post.Tags {
			if strings.EqualFold(candidate, tag) {
				out = append(out, post)
				break
			}
		}
	}
	return out
}

// Summaries returns up to limit listing entries, newest first. A limit of
// zero or less returns every post.
func (s *Store) Summaries(limit int) []Summary {
	posts := s.posts
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	out := make([]Summary, 0, len(posts))
	for _, post := range posts {
		out = append(out, post.Summarize())
	}
	return out
}

// Summarize returns the listing view of p. The front matter summary wins over
// an excerpt derived from the body.
func (p Post) Summarize() Summary {
	excerpt := p.Summary
	if excerpt == "" {
		excerpt, _ = markup.Excerpt(p.Body, excerptLength)
	}
	return Summary{
		Slug:    p.Slug,
		Title:   p.Title,
		Date:    p.Date.Format(dateLayout),
		Tags:    p.Tags,
		Excerpt: excerpt,
	}
}
