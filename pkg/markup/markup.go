// Package markup turns editor supplied Markdown and HTML fragments into
// markup that is safe to embed in rendered pages.
package markup

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdOnce sync.Once
	md     goldmark.Markdown

	contentPolicyOnce sync.Once
	contentPolicy     *bluemonday.Policy

	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func converter() goldmark.Markdown {
	mdOnce.Do(func() {
		md = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		)
	})
	return md
}

func contentSanitizer() *bluemonday.Policy {
	contentPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowElements("figure", "figcaption")
		policy.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span", "code")
		policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
		policy.AllowAttrs("loading").OnElements("img")
		policy.RequireNoFollowOnLinks(true)
		contentPolicy = policy
	})
	return contentPolicy
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// Markdown converts GitHub flavoured Markdown into sanitized HTML. Raw HTML in
// the source survives only where the content policy allows it.
func Markdown(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := converter().Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("markup: convert markdown: %w", err)
	}
	return Sanitize(buf.String()), nil
}

// Sanitize strips anything outside the content policy from an HTML fragment.
func Sanitize(fragment string) string {
	return contentSanitizer().Sanitize(fragment)
}

// PlainText removes all markup, leaving escaped text.
func PlainText(fragment string) string {
	return strings.TrimSpace(textSanitizer().Sanitize(fragment))
}

// Excerpt returns the first paragraph-sized chunk of plain text from a
// Markdown source, cut at a word boundary near limit runes.
func Excerpt(src string, limit int) (string, error) {
	rendered, err := Markdown(src)
	if err != nil {
		return "", err
	}
	text := strings.Join(strings.Fields(PlainText(rendered)), " ")
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text, nil
	}
	cut := string(runes[:limit])
	if runes[limit] != ' ' {
		if idx := strings.LastIndex(cut, " "); idx > 0 {
			cut = cut[:idx]
		}
	}
	return strings.TrimRight(cut, ".,;:") + "…", nil
}
