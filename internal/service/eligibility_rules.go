package service

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/serc-portal/recruitment-api/internal/models"
)

// RulesTable maps post codes to their eligibility rule. It is built once at
// startup and only read afterwards, so it is safe for concurrent use.
type RulesTable struct {
	rules map[string]models.PostRule
}

type rulesFile struct {
	Posts []models.PostRule `yaml:"posts"`
}

// NewRulesTable builds a table from rule records. Post codes are matched case-insensitively.
func NewRulesTable(rules ...models.PostRule) (*RulesTable, error) {
	table := &RulesTable{rules: make(map[string]models.PostRule, len(rules))}
	for _, rule := range rules {
		code := normalizePostCode(rule.PostCode)
		if code == "" {
			return nil, fmt.Errorf("rule without post code")
		}
		if _, dup := table.rules[code]; dup {
			return nil, fmt.Errorf("duplicate rule for post %s", rule.PostCode)
		}
		if rule.MaxAge <= 0 {
			return nil, fmt.Errorf("post %s: max_age must be positive", rule.PostCode)
		}
		relax := make(map[string]int, len(rule.CategoryRelaxation))
		for category, years := range rule.CategoryRelaxation {
			relax[strings.ToUpper(strings.TrimSpace(category))] = years
		}
		rule.CategoryRelaxation = relax
		rule.PostCode = code
		table.rules[code] = rule
	}
	return table, nil
}

// LoadRulesTable reads a YAML rules file of the form `posts: [...]`.
func LoadRulesTable(path string) (*RulesTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if len(file.Posts) == 0 {
		return nil, fmt.Errorf("rules file %s defines no posts", path)
	}
	return NewRulesTable(file.Posts...)
}

// DefaultRulesTable returns the rules for the current advertisement.
func DefaultRulesTable() *RulesTable {
	table, err := NewRulesTable(
		models.PostRule{
			PostCode:           "SCI-01",
			Title:              "Scientist - Structural Engineering",
			MaxAge:             35,
			CategoryRelaxation: map[string]int{"OBC": 5, "SC": 5, "ST": 5},
			PwBDRelaxation:     10,
			Required: []models.DisciplineRequirement{
				{Level: models.LevelMaster, Disciplines: []string{"Structural Engineering"}},
			},
		},
		models.PostRule{
			PostCode:           "SCI-02",
			Title:              "Scientist - Earthquake Engineering",
			MaxAge:             32,
			CategoryRelaxation: map[string]int{"OBC": 3, "SC": 5, "ST": 5},
			PwBDRelaxation:     10,
			Required: []models.DisciplineRequirement{
				{Level: models.LevelMaster, Disciplines: []string{"Earthquake Engineering", "Structural Dynamics", "Structural Engineering"}},
			},
		},
		models.PostRule{
			PostCode:           "SCI-03",
			Title:              "Scientist - Computational Mechanics",
			MaxAge:             32,
			CategoryRelaxation: map[string]int{"OBC": 3, "SC": 5, "ST": 5},
			PwBDRelaxation:     10,
			Required: []models.DisciplineRequirement{
				{Level: models.LevelBachelor, Disciplines: []string{"Civil Engineering", "Mechanical Engineering"}},
				{Level: models.LevelMaster, Disciplines: []string{"Computational Mechanics", "Structural Engineering", "Applied Mechanics"}},
			},
		},
		models.PostRule{
			PostCode:           "TO-01",
			Title:              "Technical Officer - Civil",
			MaxAge:             28,
			CategoryRelaxation: map[string]int{"OBC": 3, "SC": 5, "ST": 5},
			PwBDRelaxation:     10,
			Required: []models.DisciplineRequirement{
				{Level: models.LevelBachelor, Disciplines: []string{"Civil Engineering"}, MinMarks: 60},
			},
		},
	)
	if err != nil {
		panic(err)
	}
	return table
}

// Lookup returns the rule for a post code.
func (t *RulesTable) Lookup(postCode string) (models.PostRule, bool) {
	if t == nil {
		return models.PostRule{}, false
	}
	rule, ok := t.rules[normalizePostCode(postCode)]
	return rule, ok
}

// Posts lists all rules ordered by post code.
func (t *RulesTable) Posts() []models.PostRule {
	if t == nil {
		return nil
	}
	out := make([]models.PostRule, 0, len(t.rules))
	for _, rule := range t.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostCode < out[j].PostCode })
	return out
}

// ClosingDateFor returns the post's own closing date, or fallback when it has none.
func (t *RulesTable) ClosingDateFor(postCode, fallback string) string {
	if rule, ok := t.Lookup(postCode); ok && rule.ClosingDate != "" {
		return rule.ClosingDate
	}
	return fallback
}

func normalizePostCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
