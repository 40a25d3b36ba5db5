// Package matcher scores an opportunity catalog against a user's skills.
package matcher

import (
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"
)

const (
	// DefaultLimit caps the number of ranked results
	DefaultLimit = 20
	// DefaultHiddenGemSalary is the salary ceiling a hidden gem must exceed
	DefaultHiddenGemSalary = 1_500_000

	niceWeight        = 0.3
	niceScale         = 50.0
	hiddenGemMinScore = 60.0
	hiddenGemMaxScore = 85.0
	hiddenGemMinSkill = 2
)

// Opportunity is the part of a posting the scorer reads
type Opportunity struct {
	ID             uint
	RequiredSkills []string
	NiceToHave     []string
	MinExperience  int
	SalaryMax      *float64
	Active         bool
}

// Result is one scored opportunity. Scores are not rounded.
type Result struct {
	Opportunity     Opportunity
	OverallScore    float64
	SkillMatchScore float64
	NiceScore       float64
	MatchedRequired []string
	MissingRequired []string
	MatchedNice     []string
	IsHiddenGem     bool
}

// Options tunes ranking. Zero values fall back to the defaults.
type Options struct {
	Limit           int
	HiddenGemSalary float64
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.HiddenGemSalary <= 0 {
		o.HiddenGemSalary = DefaultHiddenGemSalary
	}
	return o
}

// Match scores every active opportunity, ranks by overall score (stable, so
// ties keep catalog order) and returns at most 20 results.
func Match(userSkills []string, catalog []Opportunity) []Result {
	return MatchWithOptions(userSkills, catalog, Options{})
}

// MatchWithOptions is Match with a configurable limit and hidden-gem salary
func MatchWithOptions(userSkills []string, catalog []Opportunity, opts Options) []Result {
	opts = opts.withDefaults()
	skills := SkillSet(userSkills)

	active := lo.Filter(catalog, func(o Opportunity, _ int) bool { return o.Active })
	results := lo.Map(active, func(o Opportunity, _ int) Result {
		return Score(skills, o, opts.HiddenGemSalary)
	})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].OverallScore > results[j].OverallScore
	})

	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

// SkillSet lowercases skill names into a lookup set
func SkillSet(skills []string) map[string]struct{} {
	return lo.SliceToMap(skills, func(s string) (string, struct{}) {
		return normalize(s), struct{}{}
	})
}

// normalize folds case only; whitespace is significant, so "Python " and "python" differ
func normalize(s string) string {
	return strings.ToLower(s)
}

// Score computes the match of one opportunity against a normalized skill set
func Score(skills map[string]struct{}, o Opportunity, hiddenGemSalary float64) Result {
	has := func(s string, _ int) bool {
		_, ok := skills[normalize(s)]
		return ok
	}

	matched, missing := lo.FilterReject(o.RequiredSkills, has)
	matchedNice := lo.Filter(o.NiceToHave, has)

	required := 100.0
	if len(o.RequiredSkills) > 0 {
		required = 100 * float64(len(matched)) / float64(len(o.RequiredSkills))
	}

	nice := 0.0
	if len(o.NiceToHave) > 0 {
		nice = niceScale * float64(len(matchedNice)) / float64(len(o.NiceToHave))
	}

	overall := math.Min(100, required+niceWeight*nice)

	return Result{
		Opportunity:     o,
		OverallScore:    overall,
		SkillMatchScore: required,
		NiceScore:       nice,
		MatchedRequired: matched,
		MissingRequired: missing,
		MatchedNice:     matchedNice,
		IsHiddenGem:     isHiddenGem(overall, len(matched), o.SalaryMax, hiddenGemSalary),
	}
}

func isHiddenGem(overall float64, matchedRequired int, salaryMax *float64, threshold float64) bool {
	return overall >= hiddenGemMinScore &&
		overall < hiddenGemMaxScore &&
		matchedRequired >= hiddenGemMinSkill &&
		salaryMax != nil && *salaryMax > threshold
}

// Round1 rounds a score to one decimal for display
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
