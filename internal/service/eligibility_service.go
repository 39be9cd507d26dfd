package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/serc-portal/recruitment-api/internal/models"
)

// DateLayout is the only accepted calendar date format.
const DateLayout = "2006-01-02"

// Evaluate checks one applicant against the rule for postCode with age taken
// as of closingDate. It fails closed: every problem with the input yields
// Eligible=false with a reason.
func (t *RulesTable) Evaluate(postCode, category string, pwbd bool, dateOfBirth string, degrees []models.Degree, closingDate string) models.EligibilityResult {
	if strings.TrimSpace(postCode) == "" {
		return ineligible("post code is required")
	}
	rule, ok := t.Lookup(postCode)
	if !ok {
		return ineligible(fmt.Sprintf("unknown post code %s", strings.TrimSpace(postCode)))
	}
	dob, err := time.Parse(DateLayout, strings.TrimSpace(dateOfBirth))
	if err != nil {
		return ineligible("date of birth must be in YYYY-MM-DD format")
	}
	closing, err := time.Parse(DateLayout, strings.TrimSpace(closingDate))
	if err != nil {
		return ineligible("closing date is not configured correctly")
	}
	if dob.After(closing) {
		return ineligible("date of birth is after the closing date")
	}

	age := AgeOn(dob, closing)
	maxAge := rule.MaxAge + rule.CategoryRelaxation[strings.ToUpper(strings.TrimSpace(category))]
	if pwbd {
		maxAge += rule.PwBDRelaxation
	}
	if rule.MinAge > 0 && age < rule.MinAge {
		res := ineligible(fmt.Sprintf("age %d on %s is below the minimum age %d for %s", age, closingDate, rule.MinAge, rule.PostCode))
		res.Age, res.MaxAge = age, maxAge
		return res
	}
	if age > maxAge {
		res := ineligible(fmt.Sprintf("age %d on %s exceeds the maximum age %d for %s", age, closingDate, maxAge, rule.PostCode))
		res.Age, res.MaxAge = age, maxAge
		return res
	}

	for _, req := range rule.Required {
		if reason := unmetRequirement(req, degrees, rule.PostCode); reason != "" {
			res := ineligible(reason)
			res.Age, res.MaxAge = age, maxAge
			return res
		}
	}
	return models.EligibilityResult{Eligible: true, Age: age, MaxAge: maxAge}
}

// AgeOn returns completed years between dob and on.
func AgeOn(dob, on time.Time) int {
	age := on.Year() - dob.Year()
	if on.Month() < dob.Month() || (on.Month() == dob.Month() && on.Day() < dob.Day()) {
		age--
	}
	return age
}

func unmetRequirement(req models.DisciplineRequirement, degrees []models.Degree, postCode string) string {
	wanted := strings.Join(req.Disciplines, " or ")
	for _, degree := range degrees {
		if !strings.EqualFold(strings.TrimSpace(degree.Level), req.Level) {
			continue
		}
		if strings.TrimSpace(degree.Institute) == "" || !disciplineMatches(degree.Discipline, req.Disciplines) {
			continue
		}
		if req.MinMarks > 0 {
			marks, ok := parseMarks(degree.Marks)
			if !ok {
				return fmt.Sprintf("%s marks are required for %s", req.Level, postCode)
			}
			if marks < req.MinMarks {
				return fmt.Sprintf("%s marks %.2f are below the minimum %.2f for %s", req.Level, marks, req.MinMarks, postCode)
			}
		}
		return ""
	}
	return fmt.Sprintf("%s degree in %s is required for %s", req.Level, wanted, postCode)
}

func disciplineMatches(discipline string, allowed []string) bool {
	discipline = strings.TrimSpace(discipline)
	for _, candidate := range allowed {
		if strings.EqualFold(discipline, strings.TrimSpace(candidate)) {
			return true
		}
	}
	return false
}

func parseMarks(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func ineligible(reason string) models.EligibilityResult {
	return models.EligibilityResult{Eligible: false, Reason: reason}
}

// EligibilityService exposes the standalone eligibility check and resolves the closing date per post.
type EligibilityService struct {
	rules       *RulesTable
	closingDate string
}

// NewEligibilityService constructs the service. closingDate is used for posts without their own.
func NewEligibilityService(rules *RulesTable, closingDate string) *EligibilityService {
	if rules == nil {
		rules = DefaultRulesTable()
	}
	return &EligibilityService{rules: rules, closingDate: closingDate}
}

// Evaluate runs the eligibility check without creating anything. Incomplete
// input yields an ineligible verdict, never an error.
func (s *EligibilityService) Evaluate(_ context.Context, req models.EligibilityRequest) (*models.EligibilityResult, error) {
	result := s.rules.Evaluate(req.PostCode, req.Category, req.PwBD, req.DateOfBirth, req.Degrees, s.ClosingDate(req.PostCode))
	return &result, nil
}

// ClosingDate returns the closing date that applies to the post.
func (s *EligibilityService) ClosingDate(postCode string) string {
	return s.rules.ClosingDateFor(postCode, s.closingDate)
}

// Rules exposes the underlying table.
func (s *EligibilityService) Rules() *RulesTable {
	return s.rules
}

// Posts lists the advertised posts.
func (s *EligibilityService) Posts() []models.PostRule {
	return s.rules.Posts()
}
