package repository

import (
	"context"
	"testing"

	"rvsync/backend/internal/models"
	"rvsync/backend/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpportunityRepository_ListActive(t *testing.T) {
	repo := NewGormOpportunityRepository(repotest.NewDB(t))
	ctx := context.Background()
	salary := 2_000_000.0

	active := &models.Opportunity{
		Title:          "Backend Engineer",
		Company:        "Acme",
		RequiredSkills: []string{"Go", "SQL"},
		NiceToHave:     []string{"Docker"},
		SalaryMax:      &salary,
		IsActive:       true,
	}
	inactive := &models.Opportunity{Title: "Old", Company: "Gone", IsActive: false}

	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, inactive))
	assert.False(t, inactive.IsActive)

	opps, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "Backend Engineer", opps[0].Title)
	assert.Equal(t, []string{"Go", "SQL"}, []string(opps[0].RequiredSkills))
	assert.Equal(t, []string{"Docker"}, []string(opps[0].NiceToHave))
	require.NotNil(t, opps[0].SalaryMax)
	assert.Equal(t, salary, *opps[0].SalaryMax)
}

func TestSkillAndProjectCounts(t *testing.T) {
	db := repotest.NewDB(t)
	skills := NewGormSkillRepository(db)
	projects := NewGormProjectRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Go", "Python", "SQL"} {
		require.NoError(t, skills.Add(ctx, &models.UserSkill{UserID: 1, SkillName: name}))
	}
	require.NoError(t, skills.Add(ctx, &models.UserSkill{UserID: 2, SkillName: "Rust"}))
	require.NoError(t, projects.Create(ctx, &models.GitHubRepo{UserID: 1, RepoName: "r", URL: "https://github.com/u/r"}))

	list, err := skills.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Go", list[0].SkillName)
	assert.Equal(t, 1, list[0].Proficiency)

	n, err := skills.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = projects.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUserRepository(t *testing.T) {
	db := repotest.NewDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	ada := repotest.SeedUser(t, db, "Ada", "Ada@Example.com")
	bob := repotest.SeedUser(t, db, "Bob", "bob@example.com")

	got, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, got.ID)
	assert.True(t, models.CheckPasswordHash("password123", got.Password))

	users, err := repo.GetByIDs(ctx, []uint{ada.ID, bob.ID, 999})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "Bob", users[bob.ID].Name)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	dup := &models.User{Name: "Ada2", Email: "ada@example.com", Password: "password123"}
	assert.Error(t, repo.Create(ctx, dup))

	require.NoError(t, repo.Update(ctx, ada.ID, map[string]any{"github_url": "https://github.com/ada", "gpa": 0.0}))
	got, err = repo.GetByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/ada", got.GithubURL)
	assert.Equal(t, "Ada", got.Name)

	assert.ErrorIs(t, repo.Update(ctx, 999, map[string]any{"bio": "x"}), ErrNotFound)
}

func TestProjectRepository_ReplaceForUser(t *testing.T) {
	db := repotest.NewDB(t)
	projects := NewGormProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, projects.Create(ctx, &models.GitHubRepo{UserID: 1, RepoName: "stale", URL: "https://github.com/a/stale"}))
	require.NoError(t, projects.Create(ctx, &models.GitHubRepo{UserID: 2, RepoName: "other", URL: "https://github.com/b/other"}))

	require.NoError(t, projects.ReplaceForUser(ctx, 1, []models.GitHubRepo{
		{RepoName: "small", URL: "https://github.com/a/small", Stars: 1},
		{RepoName: "big", URL: "https://github.com/a/big", Stars: 40, Topics: []string{"go"}},
	}))

	list, err := projects.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "big", list[0].RepoName)
	assert.Equal(t, []string{"go"}, []string(list[0].Topics))
	assert.Equal(t, "small", list[1].RepoName)

	require.NoError(t, projects.ReplaceForUser(ctx, 1, nil))
	n, err := projects.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = projects.CountByUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSkillRepository_AddMissing(t *testing.T) {
	skills := NewGormSkillRepository(repotest.NewDB(t))
	ctx := context.Background()

	require.NoError(t, skills.Add(ctx, &models.UserSkill{UserID: 1, SkillName: "Go"}))

	added, err := skills.AddMissing(ctx, 1, []string{"Go", "docker", "docker", "Python"}, "github")
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, "docker", added[0].SkillName)
	assert.Equal(t, "Python", added[1].SkillName)
	assert.NotZero(t, added[0].ID)

	list, err := skills.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "manual", list[0].Source)
	assert.Equal(t, "github", list[1].Source)

	added, err = skills.AddMissing(ctx, 1, []string{"Python", "Go"}, "github")
	require.NoError(t, err)
	assert.Empty(t, added)
}
