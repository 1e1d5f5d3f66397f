package composer

import (
	"fmt"
	"strings"
)

// Presets builds canned page variants on top of a registry.
type Presets struct {
	registry *Registry
	options  []Option
}

// NewPresets binds presets to reg. Builder options are forwarded to every
// builder the presets create.
func NewPresets(reg *Registry, options ...Option) *Presets {
	return &Presets{registry: reg, options: options}
}

// ServicePage retitles the service template's hero.
func (p *Presets) ServicePage(title string) (*Builder, error) {
	b, err := p.builder("service")
	if err != nil {
		return nil, err
	}
	if err := b.UpdateSection("hero", Props{"title": title}); err != nil {
		return nil, fmt.Errorf("composer: preset service: %w", err)
	}
	return b, nil
}

// LandingWithNewsletter appends a newsletter signup to the landing page.
func (p *Presets) LandingWithNewsletter() (*Builder, error) {
	b, err := p.builder("landing")
	if err != nil {
		return nil, err
	}
	err = b.AddSection(Section{
		ID:        "newsletter",
		Component: KindNewsletter,
		Props: Props{
			"title":       "Get our monthly AI briefing",
			"placeholder": "you@company.com",
			"action":      "/api/newsletter",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("composer: preset landing-newsletter: %w", err)
	}
	return b, nil
}

// AboutPage introduces the founder in the story section and adds them to the
// team grid.
func (p *Presets) AboutPage(founder string) (*Builder, error) {
	b, err := p.builder("about")
	if err != nil {
		return nil, err
	}
	if err := b.UpdateSection("story", Props{"author": founder}); err != nil {
		return nil, fmt.Errorf("composer: preset about: %w", err)
	}
	members := []any{map[string]any{"name": founder, "role": "Founder"}}
	if err := b.UpdateSection("team", Props{"members": members}); err != nil {
		return nil, fmt.Errorf("composer: preset about: %w", err)
	}
	return b, nil
}

// LegalPage switches the legal template to imprint, privacy or terms.
func (p *Presets) LegalPage(kind string) (*Builder, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	titles := map[string]string{
		"imprint": "Imprint",
		"privacy": "Privacy Policy",
		"terms":   "Terms of Service",
	}
	title, ok := titles[kind]
	if !ok {
		return nil, fmt.Errorf("composer: preset legal: unknown kind %q", kind)
	}

	b, err := p.builder("legal")
	if err != nil {
		return nil, err
	}
	if err := b.UpdateSection("hero", Props{"title": title}); err != nil {
		return nil, fmt.Errorf("composer: preset legal: %w", err)
	}
	if err := b.UpdateSection("legal", Props{"kind": kind}); err != nil {
		return nil, fmt.Errorf("composer: preset legal: %w", err)
	}
	return b, nil
}

// EvalkitPage appends a newsletter signup after the assessment.
func (p *Presets) EvalkitPage() (*Builder, error) {
	b, err := p.builder("evalkit")
	if err != nil {
		return nil, err
	}
	err = b.AddSection(Section{
		ID:        "newsletter",
		Component: KindNewsletter,
		Props: Props{
			"title":  "Get the EVALKIT follow-up guide",
			"action": "/api/newsletter",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("composer: preset evalkit: %w", err)
	}
	return b, nil
}

// Names lists the preset identifiers accepted by Build.
func (p *Presets) Names() []string {
	return []string{"about", "evalkit", "landing-newsletter", "legal-imprint", "legal-privacy", "legal-terms", "service"}
}

// Build resolves a preset by name, using arg for presets that take one.
func (p *Presets) Build(name, arg string) (*Builder, error) {
	switch name {
	case "service":
		if arg == "" {
			arg = "Our services"
		}
		return p.ServicePage(arg)
	case "landing-newsletter":
		return p.LandingWithNewsletter()
	case "about":
		if arg == "" {
			arg = "KIVISAI"
		}
		return p.AboutPage(arg)
	case "legal-imprint", "legal-privacy", "legal-terms":
		return p.LegalPage(strings.TrimPrefix(name, "legal-"))
	case "evalkit":
		return p.EvalkitPage()
	default:
		return nil, fmt.Errorf("composer: unknown preset %q", name)
	}
}

func (p *Presets) builder(id string) (*Builder, error) {
	return NewBuilder(p.registry, id, p.options...)
}
