package composer

import (
	"fmt"
	"strings"
)

// Option configures a Builder before its sections are loaded.
type Option func(*config)

type config struct {
	rules      Rules
	responsive ResponsiveRules
}

func defaultConfig() config {
	return config{
		rules:      DefaultRules(),
		responsive: DefaultResponsiveRules(),
	}
}

// WithRules replaces the default composition rules.
func WithRules(rules Rules) Option {
	return func(cfg *config) {
		cfg.rules = rules
	}
}

// WithResponsiveRules replaces the default breakpoint overrides.
func WithResponsiveRules(rules ResponsiveRules) Option {
	return func(cfg *config) {
		cfg.responsive = rules
	}
}

// Builder assembles one page from a base template. It owns a private copy of
// the template's sections and is not safe for concurrent use.
type Builder struct {
	base       Template
	sections   []Section
	rules      Rules
	responsive ResponsiveRules
}

// NewBuilder loads template id from reg and returns a Builder over a copy of
// its sections.
func NewBuilder(reg *Registry, id string, options ...Option) (*Builder, error) {
	tpl, err := reg.Get(id)
	if err != nil {
		return nil, err
	}
	return NewBuilderFromTemplate(tpl, options...)
}

// NewBuilderFromTemplate starts a Builder from a caller-supplied template.
// The template is copied; later changes to tpl do not leak into the builder.
// A template that already holds more sections of a kind than the rules allow
// is rejected with ErrLimitExceeded.
func NewBuilderFromTemplate(tpl Template, options ...Option) (*Builder, error) {
	cfg := defaultConfig()
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	base := tpl.Clone()
	b := &Builder{
		base:       base,
		sections:   cloneSections(base.Sections),
		rules:      cfg.rules,
		responsive: cfg.responsive,
	}
	if over := b.limitViolations(); len(over) > 0 {
		return nil, fmt.Errorf("%w: template %q: %s", ErrLimitExceeded, base.ID, strings.Join(over, "; "))
	}
	return b, nil
}

// AddSection appends section, enforcing the kind's limit and its
// compatibility with the current last section, then re-sorts all sections by
// the canonical order. State is unchanged on failure.
func (b *Builder) AddSection(section Section) error {
	if err := b.checkNewSection(section, ""); err != nil {
		return err
	}
	if err := b.checkLimit(section.Component, ""); err != nil {
		return err
	}

	var last string
	if n := len(b.sections); n > 0 {
		last = b.sections[n-1].Component
	}
	if !b.rules.CanFollow(section.Component, last) {
		return fmt.Errorf("%w: %s cannot follow %s", ErrIncompatibleComponent, section.Component, last)
	}

	b.sections = append(b.sections, section.Clone())
	sortSections(b.sections, b.rules)
	return nil
}

// RemoveSection deletes the section with the supplied id. Required sections
// cannot be removed and unknown ids are reported as ErrSectionNotFound.
func (b *Builder) RemoveSection(id string) error {
	idx := b.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrSectionNotFound, id)
	}
	if b.sections[idx].Required {
		return fmt.Errorf("%w: %q", ErrRequiredSection, id)
	}
	b.sections = append(b.sections[:idx], b.sections[idx+1:]...)
	return nil
}

// UpdateSection shallow-merges props into the section's existing props.
func (b *Builder) UpdateSection(id string, props Props) error {
	idx := b.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrSectionNotFound, id)
	}
	b.sections[idx].Props = b.sections[idx].Props.Merge(props)
	return nil
}

// ReplaceSection swaps the section identified by id for section. The limit
// check ignores the section being replaced; adjacency is left to Validate
// because the replacement keeps its canonical slot after sorting. Replacing a
// required section is allowed and Validate reports its absence.
func (b *Builder) ReplaceSection(id string, section Section) error {
	idx := b.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrSectionNotFound, id)
	}
	if err := b.checkNewSection(section, id); err != nil {
		return err
	}
	if err := b.checkLimit(section.Component, id); err != nil {
		return err
	}
	b.sections[idx] = section.Clone()
	sortSections(b.sections, b.rules)
	return nil
}

// ApplyResponsiveRules merges the breakpoint's overrides into every section
// whose kind has an entry. Unknown breakpoints leave the builder untouched.
func (b *Builder) ApplyResponsiveRules(bp Breakpoint) *Builder {
	overrides, ok := b.responsive[bp]
	if !ok {
		return b
	}
	for idx := range b.sections {
		props, ok := overrides[b.sections[idx].Component]
		if !ok {
			continue
		}
		b.sections[idx].Props = b.sections[idx].Props.Merge(props)
	}
	return b
}

// Validate checks that every required section of the base template is still
// present and that each section may follow its predecessor. All problems are
// reported, not just the first. Limits are enforced when sections enter the
// builder and need no check here.
func (b *Builder) Validate() ValidationResult {
	var errs []string

	present := make(map[string]struct{}, len(b.sections))
	for _, section := range b.sections {
		present[section.Component] = struct{}{}
	}
	for _, required := range b.base.RequiredSections() {
		if _, ok := present[required.Component]; !ok {
			errs = append(errs, fmt.Sprintf("required section %q (%s) is missing", required.ID, required.Component))
		}
	}

	for idx := 1; idx < len(b.sections); idx++ {
		prev, curr := b.sections[idx-1], b.sections[idx]
		if !b.rules.CanFollow(curr.Component, prev.Component) {
			errs = append(errs, fmt.Sprintf("section %q (%s) cannot follow %q (%s)", curr.ID, curr.Component, prev.ID, prev.Component))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Export returns a snapshot of the base template carrying the current
// sections. The builder can keep mutating without affecting the snapshot.
func (b *Builder) Export() Template {
	out := b.base.Clone()
	out.Sections = cloneSections(b.sections)
	return out
}

// Sections returns a copy of the current sections in render order.
func (b *Builder) Sections() []Section {
	return cloneSections(b.sections)
}

// Base returns a copy of the template the builder started from.
func (b *Builder) Base() Template {
	return b.base.Clone()
}

func (b *Builder) indexOf(id string) int {
	for idx, section := range b.sections {
		if section.ID == id {
			return idx
		}
	}
	return -1
}

// checkNewSection rejects blank or duplicate ids. replacing names the id
// being swapped out, which the new section may reuse.
func (b *Builder) checkNewSection(section Section, replacing string) error {
	if strings.TrimSpace(section.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidSection)
	}
	if strings.TrimSpace(section.Component) == "" {
		return fmt.Errorf("%w: section %q has no component", ErrInvalidSection, section.ID)
	}
	if section.ID != replacing && b.indexOf(section.ID) >= 0 {
		return fmt.Errorf("%w: duplicate id %q", ErrInvalidSection, section.ID)
	}
	return nil
}

func (b *Builder) checkLimit(kind, ignoreID string) error {
	limit, ok := b.rules.Limit(kind)
	if !ok {
		return nil
	}
	count := 0
	for _, section := range b.sections {
		if section.Component == kind && section.ID != ignoreID {
			count++
		}
	}
	if count+1 > limit {
		return fmt.Errorf("%w: %s allows at most %d", ErrLimitExceeded, kind, limit)
	}
	return nil
}

// limitViolations lists every kind whose section count is above its limit, in
// order of first appearance.
func (b *Builder) limitViolations() []string {
	counts := make(map[string]int)
	var kinds []string
	for _, section := range b.sections {
		if counts[section.Component] == 0 {
			kinds = append(kinds, section.Component)
		}
		counts[section.Component]++
	}
	var out []string
	for _, kind := range kinds {
		limit, ok := b.rules.Limit(kind)
		if ok && counts[kind] > limit {
			out = append(out, fmt.Sprintf("%s appears %d times, at most %d allowed", kind, counts[kind], limit))
		}
	}
	return out
}
