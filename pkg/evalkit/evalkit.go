// Package evalkit scores the EVALKIT AI readiness self-assessment. Scoring is
// deterministic: category averages, an overall mean, a maturity level per
// score and a recommendation per category and level.
package evalkit

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var embeddedData embed.FS

const (
	// MinAnswer and MaxAnswer bound the answer scale.
	MinAnswer = 1
	MaxAnswer = 5
)

var (
	ErrUnknownQuestion  = errors.New("evalkit: unknown question")
	ErrAnswerOutOfRange = errors.New("evalkit: answer out of range")
	ErrIncomplete       = errors.New("evalkit: category has no answers")
)

// Category identifies a scoring dimension.
type Category string

const (
	CategoryStrategy     Category = "strategy"
	CategoryData         Category = "data"
	CategoryTechnology   Category = "technology"
	CategoryOrganization Category = "organization"
	CategoryGovernance   Category = "governance"
)

// Categories lists the scoring dimensions in presentation order.
func Categories() []Category {
	return []Category{CategoryStrategy, CategoryData, CategoryTechnology, CategoryOrganization, CategoryGovernance}
}

// Level is a maturity bucket.
type Level string

const (
	LevelStarter      Level = "starter"
	LevelExplorer     Level = "explorer"
	LevelPractitioner Level = "practitioner"
	LevelLeader       Level = "leader"
)

// LevelFor buckets a score: below 2 starter, below 3 explorer, below 4
// practitioner, leader otherwise.
func LevelFor(score float64) Level {
	switch {
	case score < 2:
		return LevelStarter
	case score < 3:
		return LevelExplorer
	case score < 4:
		return LevelPractitioner
	default:
		return LevelLeader
	}
}

// Question is one statement answered on the 1-5 scale.
type Question struct {
	ID       string   `json:"id" yaml:"id"`
	Category Category `json:"category" yaml:"-"`
	Text     string   `json:"text" yaml:"text"`
}

// CategoryScore is the outcome for one category.
type CategoryScore struct {
	Category       Category `json:"category"`
	Title          string   `json:"title"`
	Average        float64  `json:"average"`
	Answered       int      `json:"answered"`
	Level          Level    `json:"level"`
	Recommendation string   `json:"recommendation"`
}

// Result is a scored assessment.
type Result struct {
	Categories []CategoryScore `json:"categories"`
	Overall    float64         `json:"overall"`
	Level      Level           `json:"level"`
}

// Weakest returns the category with the lowest average. Ties go to the
// category listed first.
func (r Result) Weakest() (CategoryScore, bool) {
	if len(r.Categories) == 0 {
		return CategoryScore{}, false
	}
	weakest := r.Categories[0]
	for _, score := range r.Categories[1:] {
		if score.Average < weakest.Average {
			weakest = score
		}
	}
	return weakest, true
}

type questionsFile struct {
	Categories []struct {
		ID        Category   `yaml:"id"`
		Title     string     `yaml:"title"`
		Questions []Question `yaml:"questions"`
	} `yaml:"categories"`
}

// Kit holds the questionnaire and recommendation tables. It is read-only
// after construction and safe for concurrent use.
type Kit struct {
	questions       []Question
	byID            map[string]Question
	titles          map[Category]string
	recommendations map[Category]map[Level]string
}

var (
	defaultOnce sync.Once
	defaultKit  *Kit
	defaultErr  error
)

// Default returns the kit built from the embedded questionnaire.
func Default() (*Kit, error) {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embeddedData, "data")
		if err != nil {
			defaultErr = err
			return
		}
		defaultKit, defaultErr = Load(sub)
	})
	return defaultKit, defaultErr
}

// Load reads questions.yaml and recommendations.yaml from fsys. Every
// category must have at least one question and a recommendation for every
// level.
func Load(fsys fs.FS) (*Kit, error) {
	var qf questionsFile
	if err := readYAML(fsys, "questions.yaml", &qf); err != nil {
		return nil, err
	}
	var recs map[Category]map[Level]string
	if err := readYAML(fsys, "recommendations.yaml", &recs); err != nil {
		return nil, err
	}

	kit := &Kit{
		byID:            make(map[string]Question),
		titles:          make(map[Category]string),
		recommendations: recs,
	}
	known := make(map[Category]bool, len(Categories()))
	for _, c := range Categories() {
		known[c] = true
	}

	for _, cat := range qf.Categories {
		if !known[cat.ID] {
			return nil, fmt.Errorf("evalkit: unknown category %q", cat.ID)
		}
		kit.titles[cat.ID] = cat.Title
		for _, q := range cat.Questions {
			q.ID = strings.TrimSpace(q.ID)
			if q.ID == "" {
				return nil, fmt.Errorf("evalkit: question without id in %q", cat.ID)
			}
			if _, dup := kit.byID[q.ID]; dup {
				return nil, fmt.Errorf("evalkit: duplicate question %q", q.ID)
			}
			q.Category = cat.ID
			kit.byID[q.ID] = q
			kit.questions = append(kit.questions, q)
		}
	}

	for _, c := range Categories() {
		if kit.count(c) == 0 {
			return nil, fmt.Errorf("evalkit: category %q has no questions", c)
		}
		for _, level := range []Level{LevelStarter, LevelExplorer, LevelPractitioner, LevelLeader} {
			if strings.TrimSpace(recs[c][level]) == "" {
				return nil, fmt.Errorf("evalkit: missing recommendation for %s/%s", c, level)
			}
		}
	}
	return kit, nil
}

func readYAML(fsys fs.FS, name string, out any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("evalkit: read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("evalkit: parse %s: %w", name, err)
	}
	return nil
}

// Questions returns the questionnaire in presentation order.
func (k *Kit) Questions() []Question {
	out := make([]Question, len(k.questions))
	copy(out, k.questions)
	return out
}

// Recommendation looks up the advice for a category at a level.
func (k *Kit) Recommendation(c Category, level Level) string {
	return k.recommendations[c][level]
}

// Score evaluates answers keyed by question id. Every answer must reference a
// known question and lie within 1-5; every category needs at least one
// answer. Unanswered questions are ignored.
func (k *Kit) Score(answers map[string]int) (Result, error) {
	sums := make(map[Category]int)
	counts := make(map[Category]int)

	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		q, ok := k.byID[id]
		if !ok {
			return Result{}, fmt.Errorf("%w: %q", ErrUnknownQuestion, id)
		}
		value := answers[id]
		if value < MinAnswer || value > MaxAnswer {
			return Result{}, fmt.Errorf("%w: %q=%d", ErrAnswerOutOfRange, id, value)
		}
		sums[q.Category] += value
		counts[q.Category]++
	}

	var (
		result Result
		total  float64
	)
	for _, c := range Categories() {
		if counts[c] == 0 {
			return Result{}, fmt.Errorf("%w: %q", ErrIncomplete, c)
		}
		avg := round2(float64(sums[c]) / float64(counts[c]))
		level := LevelFor(avg)
		result.Categories = append(result.Categories, CategoryScore{
			Category:       c,
			Title:          k.titles[c],
			Average:        avg,
			Answered:       counts[c],
			Level:          level,
			Recommendation: k.Recommendation(c, level),
		})
		total += avg
	}

	result.Overall = round2(total / float64(len(result.Categories)))
	result.Level = LevelFor(result.Overall)
	return result, nil
}

func (k *Kit) count(c Category) int {
	n := 0
	for _, q := range k.questions {
		if q.Category == c {
			n++
		}
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
