package composer

// Component kinds known to the default rule tables. Sections may use any
// other string; unknown kinds are unrestricted and sort last.
const (
	KindHero        = "HeroSection"
	KindStats       = "StatsSection"
	KindContent     = "ContentSection"
	KindLegal       = "LegalContent"
	KindServiceGrid = "ServiceGrid"
	KindFeatureGrid = "FeatureGrid"
	KindProcess     = "ProcessSteps"
	KindTeam        = "TeamGrid"
	KindBlogList    = "BlogList"
	KindEvalkit     = "EvalkitQuiz"
	KindContactForm = "ContactForm"
	KindFAQ         = "FaqSection"
	KindNextSteps   = "NextSteps"
	KindCTA         = "CtaSection"
	KindNewsletter  = "NewsletterCta"
)

// Rules are the composition constraints a Builder enforces.
//
// Compatible maps a component kind to the kinds it may directly follow. A kind
// without an entry may follow anything, and so may a kind whose entry is an
// empty list.
//
// Limits caps how many sections of a kind a page may hold. Kinds without an
// entry are unlimited; a limit of 0 forbids the kind entirely.
type Rules struct {
	Compatible map[string][]string
	Order      []string
	Limits     map[string]int
}

// ResponsiveRules maps a breakpoint to per-kind prop overrides.
type ResponsiveRules map[Breakpoint]map[string]Props

// DefaultRules returns a fresh copy of the site's composition rules.
func DefaultRules() Rules {
	return Rules{
		Compatible: map[string][]string{
			KindStats:       {KindHero},
			KindContent:     {KindHero, KindStats, KindContent, KindFeatureGrid, KindServiceGrid},
			KindLegal:       {KindHero},
			KindServiceGrid: {KindHero, KindStats, KindContent},
			KindFeatureGrid: {KindHero, KindStats, KindContent, KindServiceGrid, KindProcess, KindNextSteps},
			KindProcess:     {KindStats, KindContent, KindFeatureGrid, KindServiceGrid},
			KindTeam:        {KindStats, KindContent},
			KindBlogList:    {KindHero, KindContent},
			KindEvalkit:     {KindHero, KindContent},
			KindContactForm: {KindHero, KindContent},
			KindFAQ:         {KindContent, KindFeatureGrid, KindServiceGrid, KindProcess},
			KindNextSteps:   {KindContent, KindFeatureGrid, KindServiceGrid, KindProcess, KindTeam, KindFAQ},
			KindCTA:         {},
			KindNewsletter:  {KindContent, KindBlogList, KindNextSteps, KindFAQ, KindCTA},
		},
		Order: []string{
			KindHero,
			KindStats,
			KindContent,
			KindLegal,
			KindServiceGrid,
			KindFeatureGrid,
			KindProcess,
			KindTeam,
			KindBlogList,
			KindEvalkit,
			KindContactForm,
			KindFAQ,
			KindNextSteps,
			KindCTA,
			KindNewsletter,
		},
		Limits: map[string]int{
			KindHero:       1,
			KindCTA:        2,
			KindStats:      1,
			KindNewsletter: 1,
		},
	}
}

// DefaultResponsiveRules returns a fresh copy of the breakpoint overrides.
func DefaultResponsiveRules() ResponsiveRules {
	return ResponsiveRules{
		BreakpointMobile: {
			KindHero:        {"layout": "stacked", "imagePosition": "top"},
			KindStats:       {"columns": 2},
			KindServiceGrid: {"columns": 1},
			KindFeatureGrid: {"columns": 1},
			KindTeam:        {"columns": 1},
			KindProcess:     {"orientation": "vertical"},
		},
		BreakpointTablet: {
			KindStats:       {"columns": 4},
			KindServiceGrid: {"columns": 2},
			KindFeatureGrid: {"columns": 2},
			KindTeam:        {"columns": 2},
		},
	}
}

// CanFollow reports whether kind may be placed directly after previous. An
// empty previous means kind opens the page, which is always allowed.
func (r Rules) CanFollow(kind, previous string) bool {
	allowed, ok := r.Compatible[kind]
	if !ok || previous == "" || len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if candidate == previous {
			return true
		}
	}
	return false
}

// Limit returns the maximum number of sections of kind and whether a limit is
// configured at all. A configured limit of 0 means the kind is not allowed.
func (r Rules) Limit(kind string) (int, bool) {
	limit, ok := r.Limits[kind]
	return limit, ok
}

func (r Rules) orderIndex() map[string]int {
	index := make(map[string]int, len(r.Order))
	for pos, kind := range r.Order {
		if _, exists := index[kind]; exists {
			continue
		}
		index[kind] = pos
	}
	return index
}
