package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salary(v float64) *float64 { return &v }

func TestScoreHiddenGemScenario(t *testing.T) {
	opp := Opportunity{
		ID:             1,
		RequiredSkills: []string{"python", "sql", "aws"},
		NiceToHave:     []string{"docker"},
		SalaryMax:      salary(2_000_000),
		Active:         true,
	}

	results := Match([]string{"Python", "SQL"}, []Opportunity{opp})
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, []string{"python", "sql"}, r.MatchedRequired)
	assert.Equal(t, []string{"aws"}, r.MissingRequired)
	assert.Empty(t, r.MatchedNice)
	assert.InDelta(t, 66.67, r.SkillMatchScore, 0.01)
	assert.InDelta(t, 66.67, r.OverallScore, 0.01)
	assert.Equal(t, 66.7, Round1(r.OverallScore))
	assert.True(t, r.IsHiddenGem)
}

func TestScoreEmptyRequirements(t *testing.T) {
	opp := Opportunity{ID: 1, Active: true, SalaryMax: salary(5_000_000)}

	for _, skills := range [][]string{nil, {"go"}, {"go", "rust", "sql"}} {
		r := Match(skills, []Opportunity{opp})[0]
		assert.Equal(t, 100.0, r.OverallScore)
		assert.Equal(t, 100.0, r.SkillMatchScore)
		assert.False(t, r.IsHiddenGem)
	}
}

func TestScoreNiceToHaveWeight(t *testing.T) {
	opp := Opportunity{
		RequiredSkills: []string{"go", "sql"},
		NiceToHave:     []string{"docker", "k8s"},
		Active:         true,
	}

	// half required, all nice: 50 + 0.3*50
	r := Score(SkillSet([]string{"go", "docker", "K8S"}), opp, DefaultHiddenGemSalary)
	assert.InDelta(t, 65.0, r.OverallScore, 1e-9)
	assert.InDelta(t, 50.0, r.NiceScore, 1e-9)
	assert.Equal(t, []string{"docker", "k8s"}, r.MatchedNice)

	// all required, all nice: capped at 100
	r = Score(SkillSet([]string{"go", "sql", "docker", "k8s"}), opp, DefaultHiddenGemSalary)
	assert.Equal(t, 100.0, r.OverallScore)

	// nothing required matched: nice-to-have alone cannot pass 15
	r = Score(SkillSet([]string{"docker", "k8s"}), opp, DefaultHiddenGemSalary)
	assert.InDelta(t, 15.0, r.OverallScore, 1e-9)
}

func TestScoreMatchesOnCaseOnly(t *testing.T) {
	opp := Opportunity{
		RequiredSkills: []string{"Python ", "SQL"},
		Active:         true,
	}

	r := Score(SkillSet([]string{"python", "sql"}), opp, DefaultHiddenGemSalary)
	assert.Equal(t, []string{"SQL"}, r.MatchedRequired)
	assert.Equal(t, []string{"Python "}, r.MissingRequired)
	assert.InDelta(t, 50.0, r.SkillMatchScore, 1e-9)
}

func TestHiddenGemBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		overall float64
		matched int
		salary  *float64
		want    bool
	}{
		{"lower bound inclusive", 60, 2, salary(1_500_001), true},
		{"below range", 59.99, 2, salary(2_000_000), false},
		{"upper bound exclusive", 85, 3, salary(2_000_000), false},
		{"one skill", 70, 1, salary(2_000_000), false},
		{"salary at threshold", 70, 2, salary(1_500_000), false},
		{"no salary", 70, 2, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isHiddenGem(tt.overall, tt.matched, tt.salary, DefaultHiddenGemSalary))
		})
	}
}

func TestMatchFiltersInactive(t *testing.T) {
	catalog := []Opportunity{
		{ID: 1, Active: false},
		{ID: 2, Active: true},
	}

	results := Match(nil, catalog)
	require.Len(t, results, 1)
	assert.Equal(t, uint(2), results[0].Opportunity.ID)
}

func TestMatchSortsStableAndTruncates(t *testing.T) {
	catalog := make([]Opportunity, 0, 100)
	for i := 0; i < 100; i++ {
		req := []string{"go", "sql", "aws", "docker"}
		catalog = append(catalog, Opportunity{
			ID:             uint(i + 1),
			RequiredSkills: req[:1+i%4],
			Active:         true,
		})
	}

	results := Match([]string{"go"}, catalog)
	require.Len(t, results, DefaultLimit)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].OverallScore, results[i].OverallScore)
	}

	// every fourth posting requires only "go"; ties keep catalog order
	for i := 0; i < DefaultLimit; i++ {
		assert.Equal(t, uint(1+4*i), results[i].Opportunity.ID)
		assert.Equal(t, 100.0, results[i].OverallScore)
	}
}

func TestMatchWithOptions(t *testing.T) {
	catalog := []Opportunity{
		{ID: 1, RequiredSkills: []string{"go", "sql", "aws"}, SalaryMax: salary(900_000), Active: true},
		{ID: 2, Active: true},
		{ID: 3, Active: true},
	}

	results := MatchWithOptions([]string{"go", "sql"}, catalog, Options{Limit: 2, HiddenGemSalary: 500_000})
	require.Len(t, results, 2)
	assert.Equal(t, uint(2), results[0].Opportunity.ID)
	assert.Equal(t, uint(3), results[1].Opportunity.ID)

	results = MatchWithOptions([]string{"go", "sql"}, catalog, Options{HiddenGemSalary: 500_000})
	require.Len(t, results, 3)
	assert.True(t, results[2].IsHiddenGem)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		skills, projects int
		role             string
		months           int
		confidence       float64
	}{
		{10, 15, "Senior Software Engineer", 12, 85},
		{10, 14, "Software Engineer II", 6, 78},
		{5, 8, "Software Engineer II", 6, 78},
		{5, 7, "Junior Developer", 3, 90},
		{3, 0, "Junior Developer", 3, 90},
		{2, 40, "Intern/Entry Level", 6, 70},
		{0, 0, "Intern/Entry Level", 6, 70},
	}

	for _, tt := range tests {
		s := Classify(tt.skills, tt.projects)
		assert.Equal(t, tt.role, s.Role, "skills=%d projects=%d", tt.skills, tt.projects)
		assert.Equal(t, tt.months, s.TimelineMonths)
		assert.Equal(t, tt.confidence, s.Confidence)
		assert.Len(t, s.Alternatives, 3)
	}
}
