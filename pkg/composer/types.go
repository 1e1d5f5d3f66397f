package composer

// Props carries the configuration handed to a component kind. The composer
// never enforces a schema on it.
type Props map[string]any

// Breakpoint names a responsive context with its own prop overrides.
type Breakpoint string

const (
	BreakpointMobile Breakpoint = "mobile"
	BreakpointTablet Breakpoint = "tablet"
)

// Section is one content block placed within a template.
type Section struct {
	ID        string   `json:"id" yaml:"id"`
	Component string   `json:"component" yaml:"component"`
	Props     Props    `json:"props,omitempty" yaml:"props,omitempty"`
	Variants  []string `json:"variants,omitempty" yaml:"variants,omitempty"`
	Required  bool     `json:"required,omitempty" yaml:"required,omitempty"`
}

// Metadata is the page-level SEO block shared by every section.
type Metadata struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	OGImage     string   `json:"ogImage,omitempty" yaml:"ogImage,omitempty"`
	Canonical   string   `json:"canonical,omitempty" yaml:"canonical,omitempty"`
}

// Template is a named page blueprint. Exported builders return the same shape
// so renderers only ever deal with one type.
type Template struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Sections    []Section `json:"sections" yaml:"sections"`
	Metadata    Metadata  `json:"metadata" yaml:"metadata"`
}

// ValidationResult aggregates every problem Validate found.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Section returns the section with the supplied id.
func (t Template) Section(id string) (Section, bool) {
	for _, section := range t.Sections {
		if section.ID == id {
			return section, true
		}
	}
	return Section{}, false
}

// RequiredSections lists the sections flagged as required, in template order.
func (t Template) RequiredSections() []Section {
	var out []Section
	for _, section := range t.Sections {
		if section.Required {
			out = append(out, section)
		}
	}
	return out
}
